package worker

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestProgress_Print(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(10, true, &buf)
	p.startTime = time.Now().Add(-10 * time.Second)

	p.Update(Stats{Completed: 5, Total: 10, Failed: 1, Skipped: 2})
	out := buf.String()

	for _, want := range []string{"#####", "5/10 tiles", "(2 skipped)", "(1 failed)", "tiles/sec", "ETA:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got: %s", want, out)
		}
	}
}

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(3, true, &buf)
	p.startTime = time.Now().Add(-3 * time.Second)

	p.Update(Stats{Completed: 3, Total: 3})
	buf.Reset()
	p.Done()

	out := buf.String()
	if !strings.Contains(out, "Done in") {
		t.Errorf("Expected 'Done in' in output, got: %s", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Expected output to end with newline")
	}
}

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(10, false, &buf)

	p.Callback()(Stats{Completed: 5, Total: 10})

	if buf.Len() != 0 {
		t.Errorf("Expected no output when disabled, got: %s", buf.String())
	}
	if p.stats.Completed != 5 {
		t.Errorf("Expected completed=5, got %d", p.stats.Completed)
	}
}

func TestProgress_Summary(t *testing.T) {
	p := NewProgress(10, false, nil)
	p.Update(Stats{Completed: 10, Total: 10, Failed: 2, Skipped: 3})

	summary := p.Summary()
	if !strings.Contains(summary, "Rendered 5/10 tiles") {
		t.Errorf("Unexpected summary: %s", summary)
	}
	if !strings.Contains(summary, "3 skipped, 2 failed") {
		t.Errorf("Unexpected summary: %s", summary)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		expected string
		duration time.Duration
	}{
		{duration: 30 * time.Second, expected: "30s"},
		{duration: 90 * time.Second, expected: "1m30s"},
		{duration: 65 * time.Minute, expected: "1h5m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := formatDuration(tt.duration); got != tt.expected {
				t.Errorf("formatDuration(%v) = %s, want %s", tt.duration, got, tt.expected)
			}
		})
	}
}
