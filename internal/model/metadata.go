package model

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed metadata.schema.json
var metadataSchemaJSON string

var metadataSchema = jsonschema.MustCompileString("model_metadata.schema.json", metadataSchemaJSON)

func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	return ParseMetadata(data)
}

// ParseMetadata validates raw metadata against the schema and checks that the
// declared shapes agree with the class list and image size.
func ParseMetadata(data []byte) (Metadata, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := metadataSchema.Validate(doc); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if metadata.InputName == "" {
		metadata.InputName = defaultInputName
	}
	if metadata.OutputName == "" {
		metadata.OutputName = defaultOutputName
	}

	if want := int64(3 * metadata.ImageSize * metadata.ImageSize); metadata.InputSize() != want {
		return Metadata{}, fmt.Errorf("input shape %v does not hold a 3x%dx%d image",
			metadata.InputShape, metadata.ImageSize, metadata.ImageSize)
	}
	if metadata.OutputSize() != int64(len(metadata.Classes)) {
		return Metadata{}, fmt.Errorf("output shape %v does not match %d classes",
			metadata.OutputShape, len(metadata.Classes))
	}
	return metadata, nil
}

func (m Metadata) InputSize() int64 {
	return product(m.InputShape)
}

func (m Metadata) OutputSize() int64 {
	return product(m.OutputShape)
}

func product(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range shape {
		n *= dim
	}
	return n
}
