// Package labelidx builds a reverse lookup index from labels to their dense
// array positions using a minimal perfect hash. The dense label arrays only
// answer position→label; this sidecar answers label→position (e.g. which
// matrix row holds a given cell barcode).
package labelidx

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/relab/bbhash"
)

// File names inside an index directory.
const (
	mphFile          = "mph.bin"
	fingerprintsFile = "fingerprints.u64"
	positionsFile    = "positions.u64"
)

// Build constructs the index over labels in dir. The position stored for a
// label is its slice index, which equals its row in the dense label array.
// Labels must be unique.
func Build(dir string, labels []string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	keys := make([]uint64, len(labels))
	for i, l := range labels {
		keys[i] = hashLabel(l)
	}

	// Gamma 2.0 trades a little extra space for faster construction.
	mph, err := bbhash.New(keys, bbhash.Gamma(2.0))
	if err != nil {
		return fmt.Errorf("build label MPHF: %w", err)
	}

	data, err := mph.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal label MPHF: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, mphFile), data, 0644); err != nil {
		return fmt.Errorf("write label MPHF: %w", err)
	}

	// Slot arrays are indexed by (Find(hash) - 1); bbhash is 1-indexed.
	fingerprints := make([]uint64, len(labels))
	positions := make([]uint64, len(labels))
	for i, l := range labels {
		hashVal := mph.Find(hashLabel(l))
		if hashVal == 0 {
			return fmt.Errorf("MPHF lookup failed for %q", l)
		}
		slot := hashVal - 1
		fingerprints[slot] = fingerprintLabel(l)
		positions[slot] = uint64(i)
	}

	if err := writeU64Array(filepath.Join(dir, fingerprintsFile), fingerprints); err != nil {
		return fmt.Errorf("write fingerprints: %w", err)
	}
	if err := writeU64Array(filepath.Join(dir, positionsFile), positions); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

// Index answers label→position lookups.
type Index struct {
	mph          *bbhash.BBHash2
	fingerprints []uint64
	positions    []uint64
}

// Open loads an index built by Build.
func Open(dir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, mphFile))
	if err != nil {
		return nil, fmt.Errorf("read label MPHF: %w", err)
	}

	mph := &bbhash.BBHash2{}
	if err := mph.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("unmarshal label MPHF: %w", err)
	}

	fingerprints, err := readU64Array(filepath.Join(dir, fingerprintsFile))
	if err != nil {
		return nil, fmt.Errorf("open fingerprints: %w", err)
	}
	positions, err := readU64Array(filepath.Join(dir, positionsFile))
	if err != nil {
		return nil, fmt.Errorf("open positions: %w", err)
	}
	if len(fingerprints) != len(positions) {
		return nil, fmt.Errorf("fingerprint/position count mismatch: %d != %d: %w",
			len(fingerprints), len(positions), ErrInvalidArrayFile)
	}

	return &Index{
		mph:          mph,
		fingerprints: fingerprints,
		positions:    positions,
	}, nil
}

// Lookup returns the dense array position for a label, or ok=false when the
// label was not indexed. An MPHF maps unknown keys to arbitrary slots; the
// fingerprint check rejects them.
func (ix *Index) Lookup(label string) (pos uint64, ok bool) {
	if len(ix.positions) == 0 {
		return 0, false
	}

	hashVal := ix.mph.Find(hashLabel(label))
	if hashVal == 0 {
		return 0, false
	}
	slot := hashVal - 1
	if slot >= uint64(len(ix.positions)) {
		return 0, false
	}
	if ix.fingerprints[slot] != fingerprintLabel(label) {
		return 0, false
	}
	return ix.positions[slot], true
}

// Count returns the number of indexed labels.
func (ix *Index) Count() int {
	return len(ix.positions)
}

// hashLabel produces the MPHF key for a label.
func hashLabel(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// fingerprintLabel uses a different hash so false positives from the MPHF
// slot mapping are caught.
func fingerprintLabel(s string) uint64 {
	h := fnv.New64()
	h.Write([]byte(s))
	return h.Sum64()
}
