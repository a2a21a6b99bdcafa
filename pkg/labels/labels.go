// Package labels reads the feature and barcode label files that accompany a
// coordinate matrix. Both files are gzip-compressed newline-delimited text
// and small enough (tens of thousands of lines) to materialize fully; the
// 0-based line number of a label is its axis coordinate in the matrix store.
package labels

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrMalformedLabel indicates a label line missing required fields.
var ErrMalformedLabel = errors.New("malformed label line")

// Feature is one gene annotation. The assay-type column present in the raw
// file is discarded.
type Feature struct {
	EnsemblID string
	Name      string
}

// ReadFeatures reads a gzip-compressed tab-separated feature file.
// Each line needs at least an Ensembl id and a gene name; a missing third
// field is tolerated.
func ReadFeatures(path string) ([]Feature, error) {
	var features []Feature
	err := readLines(path, func(line string, n uint64) error {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return fmt.Errorf("%s:%d: %d fields, want at least 2: %w",
				path, n, len(fields), ErrMalformedLabel)
		}
		features = append(features, Feature{
			EnsemblID: strings.TrimSpace(fields[0]),
			Name:      strings.TrimSpace(fields[1]),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%s: no features: %w", path, ErrMalformedLabel)
	}
	return features, nil
}

// ReadBarcodes reads a gzip-compressed barcode file, one barcode per line,
// with surrounding whitespace stripped.
func ReadBarcodes(path string) ([]string, error) {
	var barcodes []string
	err := readLines(path, func(line string, n uint64) error {
		barcodes = append(barcodes, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(barcodes) == 0 {
		return nil, fmt.Errorf("%s: no barcodes: %w", path, ErrMalformedLabel)
	}
	return barcodes, nil
}

// readLines streams non-blank trimmed lines to fn with 1-based line numbers.
func readLines(path string, fn func(line string, n uint64) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip stream %s: %w", path, err)
	}
	defer gz.Close()

	sc := bufio.NewScanner(gz)
	var n uint64
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := fn(line, n); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
