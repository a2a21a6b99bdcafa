package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWithPhase(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.New(zerolog.NewConsoleWriter()))

	log := WithPhase("ingest")
	log.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"phase":"ingest"`) {
		t.Errorf("missing phase field: %s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("missing message: %s", out)
	}
}

func TestEntryProgressCounts(t *testing.T) {
	var buf bytes.Buffer
	p := NewEntryProgress(zerolog.New(&buf), 100)

	p.RecordBatch(10)
	p.RecordBatch(5)
	if p.Entries() != 15 {
		t.Errorf("Entries = %d, want 15", p.Entries())
	}

	p.Done()
	out := buf.String()
	if !strings.Contains(out, `"event":"ingest_completed"`) {
		t.Errorf("missing completion event: %s", out)
	}
	if !strings.Contains(out, `"entries":15`) {
		t.Errorf("missing entry count: %s", out)
	}
	if !strings.Contains(out, `"batches":2`) {
		t.Errorf("missing batch count: %s", out)
	}
}

func TestEntryProgressThrottles(t *testing.T) {
	var buf bytes.Buffer
	p := NewEntryProgress(zerolog.New(&buf), 0)
	p.interval = time.Hour

	p.RecordBatch(1)
	p.RecordBatch(1)
	if strings.Contains(buf.String(), "ingest_progress") {
		t.Errorf("progress logged inside throttle window: %s", buf.String())
	}

	p.interval = 0
	p.lastLog = time.Now().Add(-time.Second)
	p.RecordBatch(1)
	if !strings.Contains(buf.String(), "ingest_progress") {
		t.Errorf("expected progress event: %s", buf.String())
	}
}
