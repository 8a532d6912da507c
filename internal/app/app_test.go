package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Brownie44l1/catsdogs/internal/classifier"
	"github.com/Brownie44l1/catsdogs/internal/config"
)

func TestClassifiersDegradeWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Recognition.URL = ""
	cfg.Model.Path = filepath.Join(t.TempDir(), "missing.onnx")
	cfg.Model.MetadataPath = filepath.Join(t.TempDir(), "missing.json")

	set := Classifiers(cfg, classifier.KindCustom)
	defer set.Close()

	for _, k := range classifier.Kinds {
		if _, err := set.Get(k); !errors.Is(err, classifier.ErrModelUnavailable) {
			t.Fatalf("expected %s to be unavailable, got %v", k, err)
		}
	}
	if set.Default() != classifier.KindCustom {
		t.Fatalf("expected default to be kept")
	}
}

func TestClassifiersGeneralAvailable(t *testing.T) {
	cfg := config.Default()
	cfg.Recognition.URL = "http://127.0.0.1:9"
	cfg.Model.MetadataPath = filepath.Join(t.TempDir(), "missing.json")

	set := Classifiers(cfg, classifier.KindGeneral)
	defer set.Close()

	c, err := set.Get(classifier.KindGeneral)
	if err != nil {
		t.Fatalf("expected general classifier, got %v", err)
	}
	if c.Kind() != classifier.KindGeneral {
		t.Fatalf("unexpected kind %v", c.Kind())
	}
}
