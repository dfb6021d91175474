package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggerLevelFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		verbose   bool
		wantDebug bool
	}{
		{"default info", "", false, false},
		{"config debug", "debug", false, true},
		{"verbose overrides config", "warn", true, true},
		{"unknown level falls back to info", "chatty", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := defaultConfig()
			cfg.LogLevel = tt.logLevel
			logger := newLogger(&buf, cfg.level(tt.verbose))

			logger.Debug("expanding frontier", "goods", 4)

			if got := buf.Len() > 0; got != tt.wantDebug {
				t.Errorf("debug output present = %v, want %v (output %q)", got, tt.wantDebug, buf.String())
			}
		})
	}
}

func TestStageDone(t *testing.T) {
	var buf bytes.Buffer
	st := startStage(newLogger(&buf, log.InfoLevel), "load catalog")
	st.done("goods", 3, "recipes", 4)

	out := buf.String()
	for _, want := range []string{"load catalog", "goods=3", "recipes=4", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("stage output = %q, missing %q", out, want)
		}
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext() without logger should return log.Default()")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), custom)

	if got := loggerFromContext(ctx); got != custom {
		t.Fatalf("loggerFromContext() = %p, want %p", got, custom)
	}
	loggerFromContext(ctx).Info("solved plan")
	if !strings.Contains(buf.String(), "solved plan") {
		t.Errorf("custom logger output = %q", buf.String())
	}
}
