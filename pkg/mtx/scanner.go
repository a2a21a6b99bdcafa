package mtx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxLineSize bounds a single input line. Data lines are three short
// integers; comment lines in the wild stay well under this.
const maxLineSize = 1 << 20

// Scanner streams entries from a gzip-compressed coordinate file.
// It is forward-only and single-pass: the sequence cannot be restarted,
// which keeps memory bounded for multi-gigabyte inputs.
type Scanner struct {
	path    string
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
	dims    Dimensions
	line    uint64 // 1-based number of the last line read
}

// Open opens a coordinate file and parses its header, leaving the scanner
// positioned at the first data line.
func Open(path string) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip stream %s: %w", path, err)
	}

	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	s := &Scanner{
		path:    path,
		file:    f,
		gz:      gz,
		scanner: sc,
	}

	if err := s.readHeader(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// readHeader skips '%' comment lines and parses the dimension line.
func (s *Scanner) readHeader() error {
	for s.scanner.Scan() {
		s.line++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return fmt.Errorf("%s:%d: dimension line has %d fields, want 3: %w",
				s.path, s.line, len(fields), ErrMalformedHeader)
		}

		genes, err := parseUint32(fields[0])
		if err != nil {
			return fmt.Errorf("%s:%d: gene count %q: %w", s.path, s.line, fields[0], ErrMalformedHeader)
		}
		cells, err := parseUint32(fields[1])
		if err != nil {
			return fmt.Errorf("%s:%d: cell count %q: %w", s.path, s.line, fields[1], ErrMalformedHeader)
		}
		nnz, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("%s:%d: entry count %q: %w", s.path, s.line, fields[2], ErrMalformedHeader)
		}

		if genes == 0 || cells == 0 {
			return fmt.Errorf("%s:%d: dimensions must be positive: %w", s.path, s.line, ErrMalformedHeader)
		}

		// The file declares genes first, cells second. Storage puts cells
		// on the row axis so that per-cell scans stay contiguous.
		s.dims = Dimensions{
			Rows:            cells,
			Cols:            genes,
			DeclaredNonZero: nnz,
		}
		return nil
	}

	if err := s.scanner.Err(); err != nil {
		return fmt.Errorf("read header of %s: %w", s.path, err)
	}
	return fmt.Errorf("%s: no dimension line found: %w", s.path, ErrMalformedHeader)
}

// Dimensions returns the shape parsed from the header.
func (s *Scanner) Dimensions() Dimensions {
	return s.dims
}

// Line returns the 1-based line number of the most recently read line.
func (s *Scanner) Line() uint64 {
	return s.line
}

// Next returns the next entry, already converted to 0-based storage
// coordinates. It returns io.EOF when the stream is exhausted.
func (s *Scanner) Next() (Entry, error) {
	for s.scanner.Scan() {
		s.line++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			// Blank lines between data lines are an encoding artifact,
			// not data.
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return Entry{}, fmt.Errorf("%s:%d: %d fields, want 3: %w",
				s.path, s.line, len(fields), ErrMalformedLine)
		}

		gene, err := parseUint32(fields[0])
		if err != nil {
			return Entry{}, fmt.Errorf("%s:%d: gene index %q: %w", s.path, s.line, fields[0], ErrMalformedLine)
		}
		cell, err := parseUint32(fields[1])
		if err != nil {
			return Entry{}, fmt.Errorf("%s:%d: cell index %q: %w", s.path, s.line, fields[1], ErrMalformedLine)
		}
		value, err := parseUint32(fields[2])
		if err != nil {
			return Entry{}, fmt.Errorf("%s:%d: count %q: %w", s.path, s.line, fields[2], ErrMalformedLine)
		}

		// Indices are 1-based in the file.
		if gene == 0 || gene > s.dims.Cols {
			return Entry{}, fmt.Errorf("%s:%d: gene index %d not in [1,%d]: %w",
				s.path, s.line, gene, s.dims.Cols, ErrOutOfRange)
		}
		if cell == 0 || cell > s.dims.Rows {
			return Entry{}, fmt.Errorf("%s:%d: cell index %d not in [1,%d]: %w",
				s.path, s.line, cell, s.dims.Rows, ErrOutOfRange)
		}

		return Entry{
			Row:   cell - 1,
			Col:   gene - 1,
			Value: value,
		}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	return Entry{}, io.EOF
}

// Close releases the underlying readers. It is safe to call after a
// partial read.
func (s *Scanner) Close() error {
	var firstErr error
	if s.gz != nil {
		if err := s.gz.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.gz = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.file = nil
	}
	return firstErr
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
