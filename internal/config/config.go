package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Addr         string   `yaml:"addr"`
		AllowOrigins []string `yaml:"allow_origins"`
		MaxUpload    int64    `yaml:"max_upload"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Classifier struct {
		Default  string `yaml:"default"`
		Fallback bool   `yaml:"fallback"`
	} `yaml:"classifier"`
	Recognition struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"recognition"`
	Model struct {
		Path         string `yaml:"path"`
		MetadataPath string `yaml:"metadata_path"`
		LibraryPath  string `yaml:"library_path"`
	} `yaml:"model"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.AllowOrigins = []string{"*"}
	cfg.HTTP.MaxUpload = 10 << 20
	cfg.Log.Level = "info"
	cfg.Classifier.Default = "general"
	cfg.Recognition.Timeout = 30 * time.Second
	cfg.Model.Path = "models/model_embedded.onnx"
	cfg.Model.MetadataPath = "models/model_metadata.json"
	return cfg
}

// Path is the config file named by CVD_CONFIG, or config.yaml.
func Path() string {
	if v := os.Getenv("CVD_CONFIG"); v != "" {
		return v
	}
	return "config.yaml"
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Classifier.Default == "" {
		return cfg, errors.New("missing classifier.default (or CVD_CLASSIFIER)")
	}
	if cfg.HTTP.MaxUpload <= 0 {
		return cfg, errors.New("http.max_upload must be positive")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + v
	}
	if v := os.Getenv("CVD_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("CVD_ALLOW_ORIGINS"); v != "" {
		cfg.HTTP.AllowOrigins = splitCSV(v)
	}
	if v := os.Getenv("CVD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CVD_LOG_PRETTY"); v != "" {
		cfg.Log.Pretty = parseBool(v, cfg.Log.Pretty)
	}
	if v := os.Getenv("CVD_CLASSIFIER"); v != "" {
		cfg.Classifier.Default = v
	}
	if v := os.Getenv("CVD_CLASSIFIER_FALLBACK"); v != "" {
		cfg.Classifier.Fallback = parseBool(v, cfg.Classifier.Fallback)
	}
	if v := os.Getenv("CVD_RECOGNITION_URL"); v != "" {
		cfg.Recognition.URL = v
	}
	if v := os.Getenv("CVD_RECOGNITION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recognition.Timeout = d
		}
	}
	if v := os.Getenv("CVD_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("CVD_MODEL_METADATA_PATH"); v != "" {
		cfg.Model.MetadataPath = v
	}
	if v := os.Getenv("CVD_ONNXRUNTIME_LIB"); v != "" {
		cfg.Model.LibraryPath = v
	}
}

func parseBool(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}
