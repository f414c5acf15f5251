package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndDelete(t *testing.T) {
	store, err := NewEvidenciaStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	url, err := store.Save("rev-1", "foto evidencia.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(url, "/evidencias/rev-1/") {
		t.Errorf("Unexpected url %q", url)
	}
	if strings.Contains(url, " ") {
		t.Errorf("Filename should be sanitized, got %q", url)
	}

	rel := strings.TrimPrefix(url, "/evidencias/")
	data, err := os.ReadFile(filepath.Join(store.Root(), rel))
	if err != nil {
		t.Fatalf("Stored file missing: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("Stored content mismatch: %q", data)
	}

	if err := store.Delete(url); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), rel)); !os.IsNotExist(err) {
		t.Error("Blob should be gone after delete")
	}

	// Deleting a missing blob is tolerated
	if err := store.Delete(url); err != nil {
		t.Errorf("Delete of missing blob should be a no-op, got %v", err)
	}
}

func TestDeleteRejectsForeignPaths(t *testing.T) {
	store, err := NewEvidenciaStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Delete("/otra/cosa.txt"); err == nil {
		t.Error("Expected error for a non-evidence url")
	}
	if err := store.Delete("/evidencias/../../etc/passwd"); err == nil {
		t.Error("Expected error for a path traversal attempt")
	}
}

func TestSaveRequiresRevisionID(t *testing.T) {
	store, err := NewEvidenciaStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if _, err := store.Save("", "x.png", strings.NewReader("x")); err == nil {
		t.Error("Expected error for empty revision id")
	}
}
