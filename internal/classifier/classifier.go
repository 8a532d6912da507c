// Package classifier defines the cat/dog classification contract and the
// backends that satisfy it.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/Brownie44l1/catsdogs/internal/imaging"
)

var (
	// ErrImageConversion means the image could not be turned into the pixel
	// buffer a backend needs. No inference was attempted.
	ErrImageConversion = errors.New("image conversion failed")
	// ErrModelUnavailable means the backend's model could not be loaded.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInference means the inference call failed or returned a result of
	// unexpected shape.
	ErrInference = errors.New("inference failed")
)

// Classifier is implemented by every classification backend.
type Classifier interface {
	Name() string
	Kind() Kind
	// Classify returns at least one prediction, in backend rank order.
	Classify(ctx context.Context, img image.Image) ([]Prediction, error)
}

type Identifier string

const (
	Cat     Identifier = "cat"
	Dog     Identifier = "dog"
	Unknown Identifier = "unknown"
)

// ParseIdentifier maps a backend label to an Identifier. Anything other than
// "cat" or "dog" in any letter case is Unknown.
func ParseIdentifier(label string) Identifier {
	switch strings.ToLower(label) {
	case "cat":
		return Cat
	case "dog":
		return Dog
	default:
		return Unknown
	}
}

type Prediction struct {
	Identifier Identifier `json:"identifier"`
	Confidence float64    `json:"confidence"`
}

func unknownPrediction() []Prediction {
	return []Prediction{{Identifier: Unknown, Confidence: 0}}
}

// Percent is the confidence as a whole percentage, rounded to nearest.
func (p Prediction) Percent() int {
	if math.IsNaN(p.Confidence) {
		return 0
	}
	pct := math.Round(p.Confidence * 100)
	return int(math.Max(0, math.Min(100, pct)))
}

// Label is the display form of the identifier, e.g. "Cat".
func (p Prediction) Label() string {
	id := string(p.Identifier)
	if id == "" {
		return ""
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// Kind tags the backend variant.
type Kind int

const (
	KindGeneral Kind = iota
	KindCustom
)

var Kinds = []Kind{KindGeneral, KindCustom}

func (k Kind) String() string {
	switch k {
	case KindGeneral:
		return "general"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) DisplayName() string {
	switch k {
	case KindGeneral:
		return "General Animal Classifier"
	case KindCustom:
		return "Custom Cats vs Dogs Classifier"
	default:
		return k.String()
	}
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown classifier %q", s)
}

// Decode decodes encoded image bytes for classification.
func Decode(data []byte) (image.Image, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageConversion, err)
	}
	return img, nil
}

func toRGBA(img image.Image) (*image.RGBA, error) {
	rgba, err := imaging.ToRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageConversion, err)
	}
	return rgba, nil
}

// inferenceError wraps err as ErrInference unless it only reports that ctx
// was cancelled or expired, in which case ctx.Err() is returned as is.
func inferenceError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", ErrInference, err)
}
