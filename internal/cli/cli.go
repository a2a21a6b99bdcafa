// Package cli implements the command-line interface for scmtx-db.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/scmtx/scmtx-db/internal/logctx"
	"github.com/scmtx/scmtx-db/pkg/fetch"
	"github.com/scmtx/scmtx-db/pkg/humanfmt"
	"github.com/scmtx/scmtx-db/pkg/ingest"
	"github.com/scmtx/scmtx-db/pkg/labelidx"
	"github.com/scmtx/scmtx-db/pkg/logging"
	"github.com/scmtx/scmtx-db/pkg/store"
)

const usage = "usage: scmtx-db <command> [options]\ncommands: ingest, info, lookup"

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "ingest":
		return runIngest(args[1:])
	case "info":
		return runInfo(args[1:])
	case "lookup":
		return runLookup(args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	matrix := fs.String("matrix", "", "coordinate matrix file (.mtx.gz, local path or s3:// URI)")
	features := fs.String("features", "", "feature label file (.tsv.gz, local path or s3:// URI)")
	barcodes := fs.String("barcodes", "", "barcode label file (.tsv.gz, local path or s3:// URI)")
	out := fs.String("out", "", "output dataset directory")
	batchSize := fs.Int("batch-size", 0, "entries per store write (0 derives from system RAM)")
	force := fs.Bool("force", false, "remove an existing dataset directory first")
	staging := fs.String("staging", "", "local directory for staged s3:// inputs")
	debug := fs.Bool("debug", false, "enable debug logging")
	pretty := fs.Bool("pretty", false, "human-readable log output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *matrix == "" {
		return errors.New("--matrix is required")
	}
	if *features == "" {
		return errors.New("--features is required")
	}
	if *barcodes == "" {
		return errors.New("--barcodes is required")
	}
	if *out == "" {
		return errors.New("--out is required")
	}
	if *batchSize < 0 {
		return errors.New("--batch-size must not be negative")
	}

	logging.Init(*debug, *pretty)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logctx.WithLogger(ctx, *logging.L())

	inputs := []string{*matrix, *features, *barcodes}
	local, err := stageInputs(ctx, *staging, inputs)
	if err != nil {
		return err
	}

	res, err := ingest.Run(ctx, ingest.Config{
		MatrixPath:   local[0],
		FeaturesPath: local[1],
		BarcodesPath: local[2],
		OutDir:       *out,
		BatchSize:    *batchSize,
		Force:        *force,
	})
	if err != nil {
		return err
	}

	fmt.Printf("dataset: %s\n", *out)
	fmt.Printf("cells: %s  genes: %s\n",
		humanfmt.Count(int64(res.NumCells)), humanfmt.Count(int64(res.NumGenes)))
	fmt.Printf("entries written: %s in %d batches (%s)\n",
		humanfmt.CountUint64(res.EntriesWritten), res.BatchesWritten,
		humanfmt.Duration(res.Duration))
	for _, name := range res.SkippedTargets {
		fmt.Printf("skipped existing target: %s\n", name)
	}
	return nil
}

// stageInputs downloads any s3:// inputs to the staging directory. The
// S3 client is only constructed when at least one input is remote.
func stageInputs(ctx context.Context, stagingDir string, paths []string) ([]string, error) {
	remote := false
	for _, p := range paths {
		if fetch.IsS3URI(p) {
			remote = true
			break
		}
	}
	if !remote {
		return paths, nil
	}

	if stagingDir == "" {
		dir, err := os.MkdirTemp("", "scmtx-staging-")
		if err != nil {
			return nil, fmt.Errorf("create staging directory: %w", err)
		}
		stagingDir = dir
	}

	client, err := fetch.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return fetch.Stage(ctx, client, stagingDir, paths)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	dataset := fs.String("dataset", "", "dataset directory")
	verify := fs.Bool("verify", false, "verify file checksums against the manifest")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataset == "" {
		return errors.New("--dataset is required")
	}

	m, err := store.ReadManifest(*dataset)
	if err != nil {
		return err
	}

	fmt.Printf("dataset: %s\n", *dataset)
	fmt.Printf("created: %s\n", m.CreatedAt)
	fmt.Printf("cells: %s\n", humanfmt.Count(int64(m.NumCells)))
	fmt.Printf("genes: %s\n", humanfmt.Count(int64(m.NumGenes)))
	fmt.Printf("non-zero entries: %s\n", humanfmt.CountUint64(m.NonZero))
	for name, info := range m.Files {
		fmt.Printf("  %s: %s\n", name, humanfmt.Bytes(info.Size))
	}

	if *verify {
		if err := store.VerifyManifest(*dataset, m); err != nil {
			return err
		}
		fmt.Println("checksums verified")
	}
	return nil
}

func runLookup(args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	dataset := fs.String("dataset", "", "dataset directory")
	barcode := fs.String("barcode", "", "cell barcode to resolve")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataset == "" {
		return errors.New("--dataset is required")
	}
	if *barcode == "" {
		return errors.New("--barcode is required")
	}

	ix, err := labelidx.Open(filepath.Join(*dataset, store.BarcodeIndexDir))
	if err != nil {
		return err
	}

	pos, ok := ix.Lookup(*barcode)
	if !ok {
		return fmt.Errorf("barcode not found: %s", *barcode)
	}
	fmt.Printf("%s: row %d\n", *barcode, pos)
	return nil
}
