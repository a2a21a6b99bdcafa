package store

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/scmtx/scmtx-db/pkg/mtx"
)

// CooRow is the parquet schema of one sparse matrix cell. Row indexes cells,
// Col indexes genes, both 0-based. Values are raw counts and must carry the
// full 32-bit range.
type CooRow struct {
	Row   uint32 `parquet:"row,zstd"`
	Col   uint32 `parquet:"col,zstd"`
	Value uint32 `parquet:"value,zstd"`
}

// SparseWriter appends batches of entries to the sparse matrix array.
// Each WriteBatch call commits one parquet row group, so the row-group size
// is the store's chunking knob: batches are the unit of durability and of
// later scan granularity.
type SparseWriter struct {
	file    *os.File
	writer  *parquet.GenericWriter[CooRow]
	rowBuf  []CooRow
	count   uint64
	batches int
}

// CreateSparse creates the sparse matrix array file for writing.
func CreateSparse(path string) (*SparseWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create sparse array: %w", err)
	}
	return &SparseWriter{
		file:   f,
		writer: parquet.NewGenericWriter[CooRow](f),
	}, nil
}

// WriteBatch persists one batch of entries as a single row group.
// A batch shorter than the configured size is written as-is.
func (w *SparseWriter) WriteBatch(entries []mtx.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	if cap(w.rowBuf) < len(entries) {
		w.rowBuf = make([]CooRow, len(entries))
	}
	rows := w.rowBuf[:len(entries)]
	for i, e := range entries {
		rows[i] = CooRow{Row: e.Row, Col: e.Col, Value: e.Value}
	}

	if _, err := w.writer.Write(rows); err != nil {
		return fmt.Errorf("write sparse batch: %w", err)
	}
	// Flush ends the current row group, making the batch one transactional
	// write from the store's point of view.
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush sparse batch: %w", err)
	}

	w.count += uint64(len(entries))
	w.batches++
	return nil
}

// Count returns the number of entries written so far.
func (w *SparseWriter) Count() uint64 {
	return w.count
}

// Batches returns the number of row groups committed so far.
func (w *SparseWriter) Batches() int {
	return w.batches
}

// Close writes the parquet footer over the committed row groups and syncs
// the file. After a mid-stream failure this still leaves every previously
// committed batch readable.
func (w *SparseWriter) Close() error {
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close sparse writer: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("sync sparse array: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close sparse array: %w", err)
	}
	return nil
}

// SparseReader streams entries back out of a sparse matrix array by
// iterating its row groups.
type SparseReader struct {
	file *os.File
	pq   *parquet.File

	rowGroups    []parquet.RowGroup
	currentRGIdx int
	currentRows  parquet.Rows
	rowBuf       []parquet.Row
	bufIdx       int
	bufLen       int
}

// OpenSparse opens a sparse matrix array for reading.
func OpenSparse(path string) (*SparseReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sparse array: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat sparse array: %w", err)
	}

	pq, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	return &SparseReader{
		file:         f,
		pq:           pq,
		rowGroups:    pq.RowGroups(),
		currentRGIdx: -1,
		rowBuf:       make([]parquet.Row, 1024),
	}, nil
}

// RowGroups returns the number of row groups, which equals the number of
// batches committed by the writer.
func (r *SparseReader) RowGroups() int {
	return len(r.rowGroups)
}

// NumRows returns the total entry count.
func (r *SparseReader) NumRows() int64 {
	return r.pq.NumRows()
}

// Next returns the next entry in write order. Returns io.EOF when the array
// is exhausted.
func (r *SparseReader) Next() (mtx.Entry, error) {
	for {
		if r.bufIdx < r.bufLen {
			row := r.rowBuf[r.bufIdx]
			r.bufIdx++
			return rowToEntry(row), nil
		}

		if r.currentRows != nil {
			n, err := r.currentRows.ReadRows(r.rowBuf)
			if n > 0 {
				r.bufIdx = 0
				r.bufLen = n
				continue
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return mtx.Entry{}, fmt.Errorf("read sparse rows: %w", err)
			}
			r.currentRows.Close()
			r.currentRows = nil
		}

		r.currentRGIdx++
		if r.currentRGIdx >= len(r.rowGroups) {
			return mtx.Entry{}, io.EOF
		}
		r.currentRows = r.rowGroups[r.currentRGIdx].Rows()
	}
}

// rowToEntry converts a parquet row to an entry using the CooRow column
// order (row, col, value).
func rowToEntry(row parquet.Row) mtx.Entry {
	var e mtx.Entry
	for _, val := range row {
		if val.IsNull() {
			continue
		}
		switch val.Column() {
		case 0:
			e.Row = uint32(val.Uint64())
		case 1:
			e.Col = uint32(val.Uint64())
		case 2:
			e.Value = uint32(val.Uint64())
		}
	}
	return e
}

// Close releases the underlying file.
func (r *SparseReader) Close() error {
	if r.currentRows != nil {
		r.currentRows.Close()
		r.currentRows = nil
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close sparse array: %w", err)
	}
	return nil
}
