package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     Options
		tty      bool
		encoding string
		level    zapcore.Level
		wantErr  bool
	}{
		{"auto on terminal", Options{}, true, "console", zapcore.InfoLevel, false},
		{"auto when piped", Options{}, false, "json", zapcore.InfoLevel, false},
		{"forced json debug", Options{Format: "json", Debug: true}, true, "json", zapcore.DebugLevel, false},
		{"forced console piped", Options{Format: "Console"}, false, "console", zapcore.InfoLevel, false},
		{"unknown", Options{Format: "xml"}, true, "", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := NewConfig(tt.opts, tt.tty)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewConfig: %v", err)
			}
			if cfg.Encoding != tt.encoding {
				t.Errorf("expected encoding %q, got %q", tt.encoding, cfg.Encoding)
			}
			if cfg.Level.Level() != tt.level {
				t.Errorf("expected level %s, got %s", tt.level, cfg.Level.Level())
			}
		})
	}
}

func TestLineWriter(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	w := &lineWriter{logger: zap.New(core), level: zapcore.WarnLevel}

	if _, err := w.Write([]byte("fatal: not a git")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("partial line must not be logged, got %d entries", logs.Len())
	}
	if _, err := w.Write([]byte(" repository\n\nsecond\ntail")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := logs.All()
	want := []string{"fatal: not a git repository", "second", "tail"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Message != want[i] || e.Level != zapcore.WarnLevel {
			t.Errorf("entry %d: got %q at %s", i, e.Message, e.Level)
		}
	}
}
