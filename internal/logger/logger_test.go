package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "json", false},
		{"debug", "console", false},
		{"warn", "", false},
		{"verbose", "json", true},
	}
	for _, tt := range tests {
		l, err := New(tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Fatalf("New(%q, %q) err = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
		}
		if err == nil {
			_ = l.Sync()
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	l, err := New("warn", "json")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug enabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("warn disabled at warn level")
	}
}
