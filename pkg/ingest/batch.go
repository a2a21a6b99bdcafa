package ingest

import (
	"errors"
	"io"

	"github.com/scmtx/scmtx-db/pkg/mtx"
)

// DefaultBatchSize is the number of entries per store write. One batch is
// the pipeline's peak working set for matrix data.
const DefaultBatchSize = 10_000

// Batcher groups a scanner's entries into fixed-size batches. The final
// batch may be shorter; that is not an error. A parse failure mid-batch
// discards the partial batch so only fully read batches reach the store.
type Batcher struct {
	scanner *mtx.Scanner
	size    int
	buf     []mtx.Entry
}

// NewBatcher creates a batcher with the given batch size.
func NewBatcher(scanner *mtx.Scanner, size int) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher{
		scanner: scanner,
		size:    size,
		buf:     make([]mtx.Entry, 0, size),
	}
}

// Next returns the next batch, reusing an internal buffer that stays valid
// until the following call. Returns io.EOF after the last batch has been
// delivered.
func (b *Batcher) Next() ([]mtx.Entry, error) {
	b.buf = b.buf[:0]
	for len(b.buf) < b.size {
		entry, err := b.scanner.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(b.buf) == 0 {
					return nil, io.EOF
				}
				return b.buf, nil
			}
			return nil, err
		}
		b.buf = append(b.buf, entry)
	}
	return b.buf, nil
}
