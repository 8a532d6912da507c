// Package imaging converts in-memory images into the pixel buffers the
// inference backends consume.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"
)

var (
	ErrNoImage    = errors.New("no image")
	ErrEmptyImage = errors.New("image has no pixels")
)

// Mode selects how an image is fitted into a fixed input geometry.
type Mode int

const (
	// CenterCrop scales preserving aspect ratio until the target is covered,
	// then crops the overflow evenly from both edges.
	CenterCrop Mode = iota
	// ScaleFit scales preserving aspect ratio until the image fits, padding
	// the remainder with black.
	ScaleFit
	// ScaleFill stretches the image to the target geometry.
	ScaleFill
)

func (m Mode) String() string {
	switch m {
	case CenterCrop:
		return "center-crop"
	case ScaleFit:
		return "scale-fit"
	case ScaleFill:
		return "scale-fill"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Decode decodes JPEG, PNG or GIF bytes.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// ToRGBA copies img into an RGBA buffer whose bounds start at the origin.
func ToRGBA(img image.Image) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}

// Fit resizes src into a width x height buffer according to mode.
func Fit(src *image.RGBA, width, height int, mode Mode) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	if sw == 0 || sh == 0 {
		return nil, ErrEmptyImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	switch mode {
	case ScaleFill:
		resized := resize.Resize(uint(width), uint(height), src, resize.Lanczos3)
		draw.Draw(dst, dst.Bounds(), resized, resized.Bounds().Min, draw.Src)
	case CenterCrop:
		scale := math.Max(float64(width)/float64(sw), float64(height)/float64(sh))
		rw := max(width, int(math.Ceil(float64(sw)*scale)))
		rh := max(height, int(math.Ceil(float64(sh)*scale)))
		resized := resize.Resize(uint(rw), uint(rh), src, resize.Lanczos3)
		offset := resized.Bounds().Min.Add(image.Pt((rw-width)/2, (rh-height)/2))
		draw.Draw(dst, dst.Bounds(), resized, offset, draw.Src)
	case ScaleFit:
		scale := math.Min(float64(width)/float64(sw), float64(height)/float64(sh))
		rw := max(1, min(width, int(math.Round(float64(sw)*scale))))
		rh := max(1, min(height, int(math.Round(float64(sh)*scale))))
		resized := resize.Resize(uint(rw), uint(rh), src, resize.Lanczos3)
		draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
		at := image.Rect(0, 0, rw, rh).Add(image.Pt((width-rw)/2, (height-rh)/2))
		draw.Draw(dst, at, resized, resized.Bounds().Min, draw.Src)
	default:
		return nil, fmt.Errorf("unsupported crop and scale mode %s", mode)
	}
	return dst, nil
}

// CHW flattens img into planar RGB floats normalized to [0,1].
func CHW(img *image.RGBA) []float32 {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			i := y*width + x
			data[i] = float32(c.R) / 255.0
			data[plane+i] = float32(c.G) / 255.0
			data[2*plane+i] = float32(c.B) / 255.0
		}
	}
	return data
}

// EncodeJPEG encodes img for transport to services that take compressed input.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
