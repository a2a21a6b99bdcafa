package labels

import (
	"errors"
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

func TestReadFeatures(t *testing.T) {
	path := writeGzip(t, "features.tsv.gz",
		"ENSG1\tGENE1\tGene Expression\n"+
			"ENSG2\tGENE2\tGene Expression\n")

	features, err := ReadFeatures(path)
	if err != nil {
		t.Fatalf("ReadFeatures failed: %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("len = %d, want 2", len(features))
	}
	if features[0] != (Feature{EnsemblID: "ENSG1", Name: "GENE1"}) {
		t.Errorf("features[0] = %+v", features[0])
	}
	if features[1] != (Feature{EnsemblID: "ENSG2", Name: "GENE2"}) {
		t.Errorf("features[1] = %+v", features[1])
	}
}

func TestReadFeaturesMissingAssayColumn(t *testing.T) {
	// The third column is optional.
	path := writeGzip(t, "features.tsv.gz", "ENSG1\tGENE1\n")

	features, err := ReadFeatures(path)
	if err != nil {
		t.Fatalf("ReadFeatures failed: %v", err)
	}
	if len(features) != 1 || features[0].Name != "GENE1" {
		t.Errorf("features = %+v", features)
	}
}

func TestReadFeaturesMissingName(t *testing.T) {
	path := writeGzip(t, "features.tsv.gz", "ENSG1\n")

	_, err := ReadFeatures(path)
	if !errors.Is(err, ErrMalformedLabel) {
		t.Errorf("expected ErrMalformedLabel, got %v", err)
	}
}

func TestReadFeaturesEmpty(t *testing.T) {
	path := writeGzip(t, "features.tsv.gz", "")

	_, err := ReadFeatures(path)
	if !errors.Is(err, ErrMalformedLabel) {
		t.Errorf("expected ErrMalformedLabel, got %v", err)
	}
}

func TestReadBarcodes(t *testing.T) {
	path := writeGzip(t, "barcodes.tsv.gz", "AAAC-1\n  TTTG-1 \nGGGA-1\n")

	barcodes, err := ReadBarcodes(path)
	if err != nil {
		t.Fatalf("ReadBarcodes failed: %v", err)
	}
	want := []string{"AAAC-1", "TTTG-1", "GGGA-1"}
	if len(barcodes) != len(want) {
		t.Fatalf("len = %d, want %d", len(barcodes), len(want))
	}
	for i := range want {
		if barcodes[i] != want[i] {
			t.Errorf("barcodes[%d] = %q, want %q", i, barcodes[i], want[i])
		}
	}
}

func TestReadBarcodesMissingFile(t *testing.T) {
	_, err := ReadBarcodes(filepath.Join(t.TempDir(), "nope.tsv.gz"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
