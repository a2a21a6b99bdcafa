package ingest

import (
	"path/filepath"

	"github.com/scmtx/scmtx-db/pkg/fileutil"
	"github.com/scmtx/scmtx-db/pkg/store"
)

// Target is one output the pipeline may produce. Existence is probed once,
// before any write begins, so idempotency decisions never depend on files
// the run itself created.
type Target struct {
	Name   string
	Path   string
	Exists bool
}

// Plan fixes the idempotency decision for every target of one ingestion
// run. All targets follow the same policy: present means skip, absent means
// build.
type Plan struct {
	Dir          string
	Matrix       Target
	Features     Target
	Barcodes     Target
	GeneStats    Target
	CellStats    Target
	BarcodeIndex Target
}

// NewPlan probes the dataset directory and records which targets exist.
func NewPlan(dir string) Plan {
	target := func(name, rel string) Target {
		path := filepath.Join(dir, rel)
		return Target{Name: name, Path: path, Exists: fileutil.Exists(path)}
	}
	return Plan{
		Dir:          dir,
		Matrix:       target("matrix", store.MatrixFile),
		Features:     target("features", store.FeaturesFile),
		Barcodes:     target("barcodes", store.BarcodesFile),
		GeneStats:    target("gene_stats", store.GeneStatsFile),
		CellStats:    target("cell_stats", store.CellStatsFile),
		BarcodeIndex: target("barcode_index", store.BarcodeIndexDir),
	}
}

// targets lists all targets in build order.
func (p *Plan) targets() []Target {
	return []Target{
		p.Features, p.Barcodes, p.Matrix, p.GeneStats, p.CellStats, p.BarcodeIndex,
	}
}

// Existing returns the names of targets that will be skipped.
func (p *Plan) Existing() []string {
	var names []string
	for _, t := range p.targets() {
		if t.Exists {
			names = append(names, t.Name)
		}
	}
	return names
}

// Complete reports whether every target already exists, making the whole
// run a no-op.
func (p *Plan) Complete() bool {
	for _, t := range p.targets() {
		if !t.Exists {
			return false
		}
	}
	return true
}
