package store

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/scmtx/scmtx-db/pkg/labels"
)

// FeatureRow is the parquet schema of the dense gene label array. Its row
// index is the gene's column coordinate in the sparse matrix.
type FeatureRow struct {
	EnsemblID string `parquet:"gene_ensembl_id,zstd"`
	Name      string `parquet:"gene_name,zstd"`
}

// BarcodeRow is the parquet schema of the dense cell label array. Its row
// index is the cell's row coordinate in the sparse matrix.
type BarcodeRow struct {
	Barcode string `parquet:"barcode,zstd"`
}

// GeneStatsRow holds per-gene count totals, indexed like FeatureRow.
type GeneStatsRow struct {
	TotalCount uint64 `parquet:"total_count,zstd"`
	NumCells   uint32 `parquet:"n_cells,zstd"`
}

// CellStatsRow holds per-cell count totals, indexed like BarcodeRow.
type CellStatsRow struct {
	TotalCount uint64 `parquet:"total_count,zstd"`
	NumGenes   uint32 `parquet:"n_genes,zstd"`
}

// WriteFeatures bulk-writes the gene label array. The record count must
// equal the declared gene axis length.
func WriteFeatures(path string, features []labels.Feature, declared uint32) error {
	if uint32(len(features)) != declared {
		return fmt.Errorf("feature array has %d records, declared %d: %w",
			len(features), declared, ErrDimensionMismatch)
	}

	rows := make([]FeatureRow, len(features))
	for i, f := range features {
		rows[i] = FeatureRow{EnsemblID: f.EnsemblID, Name: f.Name}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write feature array: %w", err)
	}
	return nil
}

// WriteBarcodes bulk-writes the cell label array. The record count must
// equal the declared cell axis length.
func WriteBarcodes(path string, barcodes []string, declared uint32) error {
	if uint32(len(barcodes)) != declared {
		return fmt.Errorf("barcode array has %d records, declared %d: %w",
			len(barcodes), declared, ErrDimensionMismatch)
	}

	rows := make([]BarcodeRow, len(barcodes))
	for i, b := range barcodes {
		rows[i] = BarcodeRow{Barcode: b}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write barcode array: %w", err)
	}
	return nil
}

// WriteGeneStats bulk-writes the per-gene stats array.
func WriteGeneStats(path string, rows []GeneStatsRow, declared uint32) error {
	if uint32(len(rows)) != declared {
		return fmt.Errorf("gene stats array has %d records, declared %d: %w",
			len(rows), declared, ErrDimensionMismatch)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write gene stats array: %w", err)
	}
	return nil
}

// WriteCellStats bulk-writes the per-cell stats array.
func WriteCellStats(path string, rows []CellStatsRow, declared uint32) error {
	if uint32(len(rows)) != declared {
		return fmt.Errorf("cell stats array has %d records, declared %d: %w",
			len(rows), declared, ErrDimensionMismatch)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write cell stats array: %w", err)
	}
	return nil
}

// ReadFeatures reads the full gene label array. Position i answers the
// forward lookup column→gene.
func ReadFeatures(path string) ([]FeatureRow, error) {
	rows, err := parquet.ReadFile[FeatureRow](path)
	if err != nil {
		return nil, fmt.Errorf("read feature array: %w", err)
	}
	return rows, nil
}

// ReadBarcodes reads the full cell label array. Position i answers the
// forward lookup row→barcode.
func ReadBarcodes(path string) ([]BarcodeRow, error) {
	rows, err := parquet.ReadFile[BarcodeRow](path)
	if err != nil {
		return nil, fmt.Errorf("read barcode array: %w", err)
	}
	return rows, nil
}

// ReadGeneStats reads the full per-gene stats array.
func ReadGeneStats(path string) ([]GeneStatsRow, error) {
	rows, err := parquet.ReadFile[GeneStatsRow](path)
	if err != nil {
		return nil, fmt.Errorf("read gene stats array: %w", err)
	}
	return rows, nil
}

// ReadCellStats reads the full per-cell stats array.
func ReadCellStats(path string) ([]CellStatsRow, error) {
	rows, err := parquet.ReadFile[CellStatsRow](path)
	if err != nil {
		return nil, fmt.Errorf("read cell stats array: %w", err)
	}
	return rows, nil
}
