package ingest

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/scmtx/scmtx-db/pkg/mtx"
)

func openScanner(t *testing.T, content string) *mtx.Scanner {
	t.Helper()
	path := writeGzip(t, t.TempDir(), "matrix.mtx.gz", content)
	s, err := mtx.Open(path)
	if err != nil {
		t.Fatalf("mtx.Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// synthMatrix builds a valid coordinate file with n entries over a 10x10
// grid, values 1..n.
func synthMatrix(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%%%%MatrixMarket matrix coordinate integer general\n10 10 %d\n", n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d %d %d\n", i%10+1, i/10%10+1, i+1)
	}
	return b.String()
}

func TestBatcherConcatenationMatchesScanner(t *testing.T) {
	const n = 25
	content := synthMatrix(n)

	// Reference sequence straight from the scanner.
	ref := openScanner(t, content)
	var want []mtx.Entry
	for {
		e, err := ref.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("scanner Next failed: %v", err)
		}
		want = append(want, e)
	}

	// Concatenated batches must reproduce it exactly, short tail included.
	b := NewBatcher(openScanner(t, content), 10)
	var got []mtx.Entry
	var sizes []int
	for {
		batch, err := b.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("batcher Next failed: %v", err)
		}
		sizes = append(sizes, len(batch))
		got = append(got, batch...)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if len(sizes) != 3 || sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Errorf("batch sizes = %v, want [10 10 5]", sizes)
	}
}

func TestBatcherExactMultiple(t *testing.T) {
	b := NewBatcher(openScanner(t, synthMatrix(20)), 10)

	for i := 0; i < 2; i++ {
		batch, err := b.Next()
		if err != nil {
			t.Fatalf("batch %d failed: %v", i, err)
		}
		if len(batch) != 10 {
			t.Errorf("batch %d has %d entries, want 10", i, len(batch))
		}
	}
	if _, err := b.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF after exact multiple, got %v", err)
	}
}

func TestBatcherDiscardsPartialBatchOnError(t *testing.T) {
	content := "%%MatrixMarket matrix coordinate integer general\n" +
		"10 10 3\n" +
		"1 1 1\n" +
		"2 2 2\n" +
		"not a data line\n"
	b := NewBatcher(openScanner(t, content), 10)

	batch, err := b.Next()
	if !errors.Is(err, mtx.ErrMalformedLine) {
		t.Fatalf("expected ErrMalformedLine, got %v", err)
	}
	if batch != nil {
		t.Errorf("got partial batch of %d entries, want nil", len(batch))
	}
}

func TestBatcherZeroSizeUsesDefault(t *testing.T) {
	b := NewBatcher(openScanner(t, synthMatrix(3)), 0)
	if b.size != DefaultBatchSize {
		t.Errorf("size = %d, want %d", b.size, DefaultBatchSize)
	}
}

func TestBatcherEmptyMatrix(t *testing.T) {
	content := "%%MatrixMarket matrix coordinate integer general\n10 10 0\n"
	b := NewBatcher(openScanner(t, content), 10)
	if _, err := b.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected immediate EOF, got %v", err)
	}
}
