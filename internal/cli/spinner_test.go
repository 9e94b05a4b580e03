package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerStop(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Waiting for assistant")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.StopWithSuccess("done")

	out := buf.String()
	if !strings.Contains(out, "Waiting for assistant") {
		t.Errorf("spinner never drew its message: %q", out)
	}
	if !strings.Contains(out, "done") {
		t.Errorf("missing success line: %q", out)
	}
	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinner(ctx, &buf, "Testing with context...")
	s.Start()
	cancel()

	s.Stop()
	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
}

func TestSpinnerStopTwice(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "x")
	s.Start()
	s.Stop()
	s.StopWithError("failed")

	if !strings.Contains(buf.String(), "failed") {
		t.Errorf("missing error line: %q", buf.String())
	}
}
