package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if got := setup(&buf, tt.level, false); got != tt.want {
			t.Errorf("setup(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestSetupWritesJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	setup(&buf, "info", false)
	log.Info().Str("classifier", "custom").Msg("loaded")
	log.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, `"classifier":"custom"`) || !strings.Contains(out, `"message":"loaded"`) {
		t.Fatalf("unexpected log output %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug message should be filtered at info level")
	}
}
