package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")

	if Exists(path) {
		t.Error("Exists true for missing file")
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !Exists(path) {
		t.Error("Exists false for present file")
	}
}

func TestIsNonEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")

	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(full, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if IsNonEmpty(empty) {
		t.Error("IsNonEmpty true for empty file")
	}
	if !IsNonEmpty(full) {
		t.Error("IsNonEmpty false for non-empty file")
	}
	if IsNonEmpty(filepath.Join(dir, "missing")) {
		t.Error("IsNonEmpty true for missing file")
	}
}
