// Package ingest converts a coordinate-matrix bundle (matrix + feature +
// barcode files) into a persisted dataset directory. The pipeline is a
// strictly sequential single producer/single consumer loop: the scanner
// produces entries, the batcher groups them, and each group is committed to
// the sparse store as one write.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/scmtx/scmtx-db/pkg/labelidx"
	"github.com/scmtx/scmtx-db/pkg/labels"
	"github.com/scmtx/scmtx-db/pkg/logging"
	"github.com/scmtx/scmtx-db/pkg/mtx"
	"github.com/scmtx/scmtx-db/pkg/store"
	"github.com/scmtx/scmtx-db/pkg/sysmem"
)

// Config holds one ingestion run's inputs and knobs.
type Config struct {
	MatrixPath   string
	FeaturesPath string
	BarcodesPath string
	OutDir       string

	// BatchSize is the number of entries per sparse store write.
	// 0 selects a size derived from system RAM.
	BatchSize int

	// Force removes an existing dataset directory before ingesting.
	Force bool
}

// Result summarizes an ingestion run.
type Result struct {
	NumCells       uint32
	NumGenes       uint32
	EntriesWritten uint64
	BatchesWritten int
	// SkippedTargets names outputs that already existed and were left
	// untouched.
	SkippedTargets []string
	Duration       time.Duration
}

// Run executes one ingestion. Already existing targets are skipped and
// reported, never overwritten; a rerun over a complete dataset is a no-op.
// On a mid-stream failure, batches committed before the failure stay
// persisted and readable (the ingestion is not atomic or resumable).
func Run(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()
	log := logging.WithPhase("ingest")

	if cfg.Force {
		if err := os.RemoveAll(cfg.OutDir); err != nil {
			return nil, fmt.Errorf("remove existing dataset: %w", err)
		}
	}

	plan := NewPlan(cfg.OutDir)
	skipped := plan.Existing()
	for _, name := range skipped {
		log.Warn().
			Err(store.ErrOutputExists).
			Str("target", name).
			Msg("skipping existing target")
	}
	if plan.Complete() {
		res := &Result{SkippedTargets: skipped, Duration: time.Since(start)}
		if m, err := store.ReadManifest(cfg.OutDir); err == nil {
			res.NumCells = m.NumCells
			res.NumGenes = m.NumGenes
		}
		log.Info().Msg("dataset already complete, nothing to do")
		return res, nil
	}

	barcodes, err := labels.ReadBarcodes(cfg.BarcodesPath)
	if err != nil {
		return nil, fmt.Errorf("read barcodes: %w", err)
	}
	features, err := labels.ReadFeatures(cfg.FeaturesPath)
	if err != nil {
		return nil, fmt.Errorf("read features: %w", err)
	}

	scanner, err := mtx.Open(cfg.MatrixPath)
	if err != nil {
		return nil, fmt.Errorf("open matrix: %w", err)
	}
	defer scanner.Close()

	dims := scanner.Dimensions()
	if dims.Rows != uint32(len(barcodes)) {
		return nil, fmt.Errorf("matrix declares %d cells, barcode file has %d: %w",
			dims.Rows, len(barcodes), store.ErrDimensionMismatch)
	}
	if dims.Cols != uint32(len(features)) {
		return nil, fmt.Errorf("matrix declares %d genes, feature file has %d: %w",
			dims.Cols, len(features), store.ErrDimensionMismatch)
	}

	log.Info().
		Uint32("cells", dims.Rows).
		Uint32("genes", dims.Cols).
		Uint64("declared_entries", dims.DeclaredNonZero).
		Str("dataset", cfg.OutDir).
		Msg("starting ingestion")

	if err := store.CreateGroup(cfg.OutDir); err != nil {
		return nil, err
	}

	if !plan.Features.Exists {
		if err := store.WriteFeatures(plan.Features.Path, features, dims.Cols); err != nil {
			return nil, err
		}
	}
	if !plan.Barcodes.Exists {
		if err := store.WriteBarcodes(plan.Barcodes.Path, barcodes, dims.Rows); err != nil {
			return nil, err
		}
	}

	res := &Result{
		NumCells:       dims.Rows,
		NumGenes:       dims.Cols,
		SkippedTargets: skipped,
	}

	if !plan.Matrix.Exists {
		if err := ingestMatrix(ctx, cfg, plan, scanner, dims, res); err != nil {
			return nil, err
		}
	}

	if !plan.BarcodeIndex.Exists {
		if err := labelidx.Build(plan.BarcodeIndex.Path, barcodes); err != nil {
			return nil, fmt.Errorf("build barcode index: %w", err)
		}
	}

	nonZero := res.EntriesWritten
	if plan.Matrix.Exists {
		// The skipped matrix's entry count comes from its own footer, so
		// the rewritten manifest stays accurate even when the prior
		// manifest is missing or unreadable.
		reader, err := store.OpenSparse(plan.Matrix.Path)
		if err != nil {
			return nil, fmt.Errorf("read existing matrix entry count: %w", err)
		}
		nonZero = uint64(reader.NumRows())
		reader.Close()
	}
	if err := store.WriteManifest(cfg.OutDir, dims.Rows, dims.Cols, nonZero); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	log.Info().
		Uint64("entries", res.EntriesWritten).
		Int("batches", res.BatchesWritten).
		Dur("duration", res.Duration).
		Msg("ingestion finished")
	return res, nil
}

// ingestMatrix streams the coordinate file into the sparse store and
// derives the per-axis stats arrays in the same pass.
func ingestMatrix(ctx context.Context, cfg Config, plan Plan, scanner *mtx.Scanner, dims mtx.Dimensions, res *Result) error {
	log := logging.WithPhase("ingest")

	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = autoBatchSize()
		log.Debug().Int("batch_size", batchSize).Msg("derived batch size from system RAM")
	}

	writer, err := store.CreateSparse(plan.Matrix.Path)
	if err != nil {
		return err
	}

	geneStats := make([]store.GeneStatsRow, dims.Cols)
	cellStats := make([]store.CellStatsRow, dims.Rows)

	batcher := NewBatcher(scanner, batchSize)
	progress := logging.NewEntryProgress(log, dims.DeclaredNonZero)

	for {
		if err := ctx.Err(); err != nil {
			writer.Close()
			return fmt.Errorf("ingestion canceled: %w", err)
		}

		batch, err := batcher.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Commit the footer so batches written before the failure
			// stay readable, then surface the parse error.
			writer.Close()
			return err
		}

		for _, e := range batch {
			geneStats[e.Col].TotalCount += uint64(e.Value)
			geneStats[e.Col].NumCells++
			cellStats[e.Row].TotalCount += uint64(e.Value)
			cellStats[e.Row].NumGenes++
		}

		if err := writer.WriteBatch(batch); err != nil {
			writer.Close()
			return err
		}
		progress.RecordBatch(len(batch))
	}

	res.EntriesWritten = writer.Count()
	res.BatchesWritten = writer.Batches()
	if err := writer.Close(); err != nil {
		return err
	}
	progress.Done()

	if !plan.GeneStats.Exists {
		if err := store.WriteGeneStats(plan.GeneStats.Path, geneStats, dims.Cols); err != nil {
			return err
		}
	}
	if !plan.CellStats.Exists {
		if err := store.WriteCellStats(plan.CellStats.Path, cellStats, dims.Rows); err != nil {
			return err
		}
	}
	return nil
}

// autoBatchSize derives a batch size from system RAM. Larger batches mean
// larger parquet row groups, which scan better; the cap keeps one batch's
// working set far below the machine's memory.
func autoBatchSize() int {
	const (
		bytesPerEntry = 12
		ramFraction   = 512 // use ~1/512 of RAM per batch
		maxBatch      = 4_000_000
	)

	total := sysmem.Total().TotalBytes
	size := int(total / ramFraction / bytesPerEntry)
	if size < DefaultBatchSize {
		return DefaultBatchSize
	}
	if size > maxBatch {
		return maxBatch
	}
	return size
}
