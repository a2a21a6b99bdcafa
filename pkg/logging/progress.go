package logging

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/scmtx/scmtx-db/pkg/humanfmt"
)

// defaultLogInterval throttles periodic progress events.
const defaultLogInterval = 5 * time.Second

// EntryProgress reports periodic progress while streaming matrix entries.
// The declared total comes from the matrix header and is informational, so
// the percentage can over- or undershoot on inaccurate headers.
type EntryProgress struct {
	log      zerolog.Logger
	declared uint64
	entries  uint64
	batches  int
	start    time.Time
	lastLog  time.Time
	interval time.Duration
}

// NewEntryProgress creates a progress reporter for one ingestion run.
func NewEntryProgress(log zerolog.Logger, declared uint64) *EntryProgress {
	now := time.Now()
	return &EntryProgress{
		log:      log,
		declared: declared,
		start:    now,
		lastLog:  now,
		interval: defaultLogInterval,
	}
}

// RecordBatch accounts one committed batch and emits a progress event at
// most once per interval.
func (p *EntryProgress) RecordBatch(entries int) {
	p.entries += uint64(entries)
	p.batches++

	if time.Since(p.lastLog) < p.interval {
		return
	}
	p.lastLog = time.Now()

	e := p.log.Info().
		Str("event", "ingest_progress").
		Uint64("entries", p.entries).
		Int("batches", p.batches).
		Float64("entries_per_sec", p.rate())
	if p.declared > 0 {
		e = e.Float64("progress_pct", float64(p.entries)*100.0/float64(p.declared))
	}
	if IsPrettyMode() {
		e = e.Str("entries_h", humanfmt.CountUint64(p.entries))
	}
	e.Msg("ingesting matrix entries")
}

// Done emits the final completion event.
func (p *EntryProgress) Done() {
	elapsed := time.Since(p.start)
	e := p.log.Info().
		Str("event", "ingest_completed").
		Uint64("entries", p.entries).
		Int("batches", p.batches).
		Int64("duration_ms", elapsed.Milliseconds()).
		Float64("entries_per_sec", p.rate())
	if IsPrettyMode() {
		e = e.Str("entries_h", humanfmt.CountUint64(p.entries)).
			Str("duration_h", humanfmt.Duration(elapsed))
	}
	e.Msg("matrix ingestion complete")
}

// Entries returns the number of entries recorded so far.
func (p *EntryProgress) Entries() uint64 {
	return p.entries
}

func (p *EntryProgress) rate() float64 {
	elapsed := time.Since(p.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.entries) / elapsed
}
