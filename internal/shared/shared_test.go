package shared

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestCeilDiv(t *testing.T) {
	tc := []struct {
		name string
		a, b int
		want int
	}{
		{name: "exact", a: 16, b: 8, want: 2},
		{name: "remainder", a: 17, b: 8, want: 3},
		{name: "less than divisor", a: 7, b: 8, want: 1},
		{name: "zero", a: 0, b: 8, want: 0},
		{name: "negative", a: -3, b: 8, want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := CeilDiv(tt.a, tt.b); got != tt.want {
				t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		in   string
		want log.Level
	}{
		{in: "debug", want: log.DebugLevel},
		{in: " WARN ", want: log.WarnLevel},
		{in: "error", want: log.ErrorLevel},
		{in: "nonsense", want: log.InfoLevel},
		{in: "", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)
		l.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "hitnote.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		l.Info("written")
	})
}

func TestValidateJSON(t *testing.T) {
	if err := ValidateJSON([]byte(`{"ok": true}`)); err != nil {
		t.Errorf("expected valid JSON, got %v", err)
	}

	err := ValidateJSON([]byte(`{"ok": `))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %d", len(a))
	}
}

func TestSendLatest(t *testing.T) {
	t.Run("Sends When Buffer Has Room", func(t *testing.T) {
		ch := make(chan int, 1)
		SendLatest(ch, 1)
		if got := <-ch; got != 1 {
			t.Errorf("expected 1, got %d", got)
		}
	})

	t.Run("Replaces Stale Value", func(t *testing.T) {
		ch := make(chan int, 1)
		SendLatest(ch, 1)
		SendLatest(ch, 2)
		SendLatest(ch, 3)
		if got := <-ch; got != 3 {
			t.Errorf("expected latest value 3, got %d", got)
		}
		select {
		case v := <-ch:
			t.Errorf("expected empty channel, got %d", v)
		default:
		}
	})

	t.Run("Unbuffered Without Reader Does Not Block", func(t *testing.T) {
		ch := make(chan int)
		SendLatest(ch, 1)
	})
}
