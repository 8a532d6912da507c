package model

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{
			name: "valid",
			data: `{"input_shape":[1,3,224,224],"output_shape":[1,2],"classes":["cat","dog"],"image_size":224}`,
		},
		{
			name:    "missing classes",
			data:    `{"input_shape":[1,3,224,224],"output_shape":[1,2],"image_size":224}`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			data:    `{"input_shape":[1,3,224,224],"output_shape":[1,2],"classes":["cat","dog"],"image_size":"224"}`,
			wantErr: true,
		},
		{
			name:    "class count mismatch",
			data:    `{"input_shape":[1,3,224,224],"output_shape":[1,3],"classes":["cat","dog"],"image_size":224}`,
			wantErr: true,
		},
		{
			name:    "input shape mismatch",
			data:    `{"input_shape":[1,3,128,128],"output_shape":[1,2],"classes":["cat","dog"],"image_size":224}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `classes: [cat, dog]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetadata([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMetadata() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMetadataDefaultsTensorNames(t *testing.T) {
	m, err := ParseMetadata([]byte(`{"input_shape":[1,3,2,2],"output_shape":[2],"classes":["Cat","Dog"],"image_size":2,"softmax":true}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.InputName != "input" || m.OutputName != "output" {
		t.Fatalf("unexpected tensor names %q %q", m.InputName, m.OutputName)
	}
	if !m.Softmax {
		t.Fatalf("expected softmax flag")
	}
	if m.InputSize() != 12 || m.OutputSize() != 2 {
		t.Fatalf("unexpected sizes %d %d", m.InputSize(), m.OutputSize())
	}
}

func TestLoadMetadataMissingFile(t *testing.T) {
	if _, err := LoadMetadata(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestNewSessionFailsOnBadMetadata(t *testing.T) {
	dir := t.TempDir()
	metadataPath := filepath.Join(dir, "model_metadata.json")
	if err := os.WriteFile(metadataPath, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := NewSession(Options{ModelPath: filepath.Join(dir, "model.onnx"), MetadataPath: metadataPath})
	if err == nil || s != nil {
		t.Fatalf("expected construction failure, got %v %v", s, err)
	}
}
