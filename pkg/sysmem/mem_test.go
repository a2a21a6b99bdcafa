package sysmem

import "testing"

func TestTotal(t *testing.T) {
	r := Total()
	if r.TotalBytes == 0 {
		t.Error("TotalBytes = 0, want fallback or detected value")
	}
	if !r.Reliable && r.TotalBytes != DefaultMemoryBytes {
		t.Errorf("unreliable result should be the default: got %d", r.TotalBytes)
	}
	// 1 MiB is an implausibly small machine; catches unit mistakes.
	if r.Reliable && r.TotalBytes < 1024*1024 {
		t.Errorf("detected memory implausibly small: %d", r.TotalBytes)
	}
}
