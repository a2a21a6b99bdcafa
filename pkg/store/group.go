// Package store persists a single-cell expression dataset as a directory of
// parquet arrays plus a manifest: one sparse COO matrix keyed by
// (cell row, gene column) and dense per-axis label and stats arrays whose
// positions are the matrix coordinates.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Array file names inside a dataset directory.
const (
	MatrixFile    = "matrix.parquet"
	FeaturesFile  = "features.parquet"
	BarcodesFile  = "barcodes.parquet"
	GeneStatsFile = "gene_stats.parquet"
	CellStatsFile = "cell_stats.parquet"
	// BarcodeIndexDir holds the reverse barcode lookup sidecar.
	BarcodeIndexDir = "barcode_index"
	// ManifestFile ties the arrays together as one logical dataset.
	ManifestFile = "manifest.json"
)

// ManifestVersion is the current manifest format version.
const ManifestVersion = 1

// Manifest describes a dataset directory.
type Manifest struct {
	Version   int                 `json:"version"`
	CreatedAt time.Time           `json:"created_at"`
	NumCells  uint32              `json:"num_cells"`
	NumGenes  uint32              `json:"num_genes"`
	NonZero   uint64              `json:"nonzero_entries"`
	Files     map[string]FileInfo `json:"files"`
}

// FileInfo records size and checksum of one array file.
type FileInfo struct {
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"` // SHA-256 hex
}

// CreateGroup creates the dataset directory.
func CreateGroup(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	return nil
}

// WriteManifest records all present array files with checksums.
func WriteManifest(dir string, numCells, numGenes uint32, nonZero uint64) error {
	manifest := Manifest{
		Version:   ManifestVersion,
		CreatedAt: time.Now().UTC(),
		NumCells:  numCells,
		NumGenes:  numGenes,
		NonZero:   nonZero,
		Files:     make(map[string]FileInfo),
	}

	arrayFiles := []string{
		MatrixFile,
		FeaturesFile,
		BarcodesFile,
		GeneStatsFile,
		CellStatsFile,
	}

	for _, name := range arrayFiles {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat %s: %w", name, err)
		}

		checksum, err := checksumFile(path)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", name, err)
		}

		manifest.Files[name] = FileInfo{
			Size:     info.Size(),
			Checksum: checksum,
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := writeFileSync(filepath.Join(dir, ManifestFile), data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return SyncDir(dir)
}

// ReadManifest reads the manifest from a dataset directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// VerifyManifest checks that every recorded file matches its size and
// checksum.
func VerifyManifest(dir string, manifest *Manifest) error {
	for name, info := range manifest.Files {
		path := filepath.Join(dir, name)

		stat, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("file %s: %w", name, err)
		}
		if stat.Size() != info.Size {
			return fmt.Errorf("file %s: size mismatch (got %d, want %d)",
				name, stat.Size(), info.Size)
		}

		checksum, err := checksumFile(path)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", name, err)
		}
		if checksum != info.Checksum {
			return fmt.Errorf("file %s: checksum mismatch", name)
		}
	}
	return nil
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SyncDir fsyncs a directory so freshly written entries are persisted.
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
