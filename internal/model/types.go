package model

import (
	"image"

	"github.com/Brownie44l1/catsdogs/internal/imaging"
)

const (
	defaultInputName  = "input"
	defaultOutputName = "output"
)

// Metadata describes the model graph. Softmax is set when the graph emits
// logits rather than probabilities.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	InputName   string   `json:"input_name,omitempty"`
	OutputName  string   `json:"output_name,omitempty"`
	Softmax     bool     `json:"softmax,omitempty"`
}

// Options locate the model files and the ONNX Runtime shared library.
type Options struct {
	ModelPath    string
	MetadataPath string
	LibraryPath  string
}

// Classification is one labelled score produced by the model.
type Classification struct {
	Identifier string
	Confidence float32
}

// Request is a single inference submission. Done is called with the
// classifications ordered by descending confidence, or with an error.
type Request struct {
	Image        *image.RGBA
	CropAndScale imaging.Mode
	Done         func([]Classification, error)
}
