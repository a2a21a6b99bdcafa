// Package sysmem detects total system RAM so the ingestion pipeline can
// auto-size its write batches. Unsupported platforms fall back to a safe
// default.
package sysmem

// DefaultMemoryBytes is the fallback (4 GB) when detection fails.
const DefaultMemoryBytes uint64 = 4 * 1024 * 1024 * 1024

// Result holds the outcome of memory detection.
type Result struct {
	// TotalBytes is the total system memory in bytes.
	TotalBytes uint64
	// Reliable is false when TotalBytes is the fallback default rather
	// than a platform-reported value.
	Reliable bool
}

// Total returns the total system memory, falling back to
// DefaultMemoryBytes when platform detection is unavailable.
func Total() Result {
	bytes, ok := totalSystemMemory()
	if !ok || bytes == 0 {
		return Result{TotalBytes: DefaultMemoryBytes, Reliable: false}
	}
	return Result{TotalBytes: bytes, Reliable: true}
}
