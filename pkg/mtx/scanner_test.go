package mtx

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func writeGzip(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestScannerHeader(t *testing.T) {
	path := writeGzip(t, "matrix.mtx.gz",
		"%%MatrixMarket matrix coordinate integer general\n"+
			"%metadata_json: {\"format_version\": 2}\n"+
			"2 3 2\n"+
			"1 2 5\n"+
			"2 3 1\n")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	dims := s.Dimensions()
	if dims.Rows != 3 {
		t.Errorf("Rows = %d, want 3", dims.Rows)
	}
	if dims.Cols != 2 {
		t.Errorf("Cols = %d, want 2", dims.Cols)
	}
	if dims.DeclaredNonZero != 2 {
		t.Errorf("DeclaredNonZero = %d, want 2", dims.DeclaredNonZero)
	}
}

func TestScannerAxisSwap(t *testing.T) {
	// File triples are (gene, cell, count), 1-based. Storage entries are
	// (row=cell-1, col=gene-1).
	path := writeGzip(t, "matrix.mtx.gz",
		"%%MatrixMarket matrix coordinate integer general\n"+
			"2 3 2\n"+
			"1 2 5\n"+
			"2 3 1\n")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	e, err := s.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if e != (Entry{Row: 1, Col: 0, Value: 5}) {
		t.Errorf("entry 1 = %+v, want {Row:1 Col:0 Value:5}", e)
	}

	e, err = s.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if e != (Entry{Row: 2, Col: 1, Value: 1}) {
		t.Errorf("entry 2 = %+v, want {Row:2 Col:1 Value:1}", e)
	}

	_, err = s.Next()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestScannerSkipsBlankLines(t *testing.T) {
	path := writeGzip(t, "matrix.mtx.gz",
		"%%MatrixMarket matrix coordinate integer general\n"+
			"\n"+
			"1 1 1\n"+
			"1 1 7\n"+
			"\n")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	e, err := s.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if e.Value != 7 {
		t.Errorf("Value = %d, want 7", e.Value)
	}

	_, err = s.Next()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestScannerMaxUint32Value(t *testing.T) {
	// Spike-in counts can approach 32 bits; the full range must survive.
	path := writeGzip(t, "matrix.mtx.gz",
		"%%MatrixMarket matrix coordinate integer general\n"+
			"1 1 1\n"+
			"1 1 4294967295\n")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	e, err := s.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if e.Value != 4294967295 {
		t.Errorf("Value = %d, want 4294967295", e.Value)
	}
}

func TestScannerMalformedLine(t *testing.T) {
	path := writeGzip(t, "matrix.mtx.gz",
		"%%MatrixMarket matrix coordinate integer general\n"+
			"2 2 2\n"+
			"1 1\n")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	_, err = s.Next()
	if !errors.Is(err, ErrMalformedLine) {
		t.Errorf("expected ErrMalformedLine, got %v", err)
	}
}

func TestScannerNonIntegerToken(t *testing.T) {
	path := writeGzip(t, "matrix.mtx.gz",
		"%%MatrixMarket matrix coordinate integer general\n"+
			"2 2 1\n"+
			"1 x 3\n")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	_, err = s.Next()
	if !errors.Is(err, ErrMalformedLine) {
		t.Errorf("expected ErrMalformedLine, got %v", err)
	}
}

func TestScannerOutOfRange(t *testing.T) {
	path := writeGzip(t, "matrix.mtx.gz",
		"%%MatrixMarket matrix coordinate integer general\n"+
			"2 3 1\n"+
			"3 1 9\n")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	_, err = s.Next()
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestScannerZeroIndexRejected(t *testing.T) {
	path := writeGzip(t, "matrix.mtx.gz",
		"%%MatrixMarket matrix coordinate integer general\n"+
			"2 3 1\n"+
			"0 1 9\n")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	_, err = s.Next()
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestScannerMissingHeader(t *testing.T) {
	path := writeGzip(t, "matrix.mtx.gz", "%%MatrixMarket matrix coordinate integer general\n%\n")

	_, err := Open(path)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestScannerHeaderWrongFieldCount(t *testing.T) {
	path := writeGzip(t, "matrix.mtx.gz",
		"%%MatrixMarket matrix coordinate integer general\n"+
			"2 3\n")

	_, err := Open(path)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestScannerMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.mtx.gz"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
