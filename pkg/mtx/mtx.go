// Package mtx provides a streaming parser for gzip-compressed MatrixMarket
// coordinate files as produced by single-cell pipelines (CellRanger and
// compatible tools).
//
// The file convention is: any number of leading comment lines starting with
// '%', one dimension line "<num_genes> <num_cells> <num_entries>", then one
// "<gene_idx> <cell_idx> <count>" triple per line, all indices 1-based.
// The parser converts each triple to 0-based storage coordinates with cells
// on the row axis and genes on the column axis.
package mtx

// Dimensions holds the matrix shape declared by the header line.
type Dimensions struct {
	// Rows is the number of cells (second header field).
	Rows uint32
	// Cols is the number of genes (first header field).
	Cols uint32
	// DeclaredNonZero is the entry count claimed by the header. It is
	// informational only and never validated against the actual stream.
	DeclaredNonZero uint64
}

// Entry is a single nonzero matrix cell in storage coordinates.
// Row and Col are 0-based; Row indexes cells, Col indexes genes.
type Entry struct {
	Row   uint32
	Col   uint32
	Value uint32
}
