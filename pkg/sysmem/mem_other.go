//go:build !linux && !darwin

package sysmem

// totalSystemMemory reports failure on platforms without a detector,
// triggering the default fallback.
func totalSystemMemory() (uint64, bool) {
	return 0, false
}
