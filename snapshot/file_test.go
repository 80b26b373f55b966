package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileKV_SetGetDelete(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := kv.Set(t.Context(), "cart-snapshot-v2", []byte("payload")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := kv.Get(t.Context(), "cart-snapshot-v2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("got %q, want payload", got)
	}

	if err := kv.Delete(t.Context(), "cart-snapshot-v2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := kv.Get(t.Context(), "cart-snapshot-v2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFileKV_GetMissingKey(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := kv.Get(t.Context(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileKV_DeleteMissingKeyIsNoop(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := kv.Delete(t.Context(), "absent"); err != nil {
		t.Errorf("deleting an absent key must succeed: %v", err)
	}
}

func TestFileKV_OverwriteIsWholesale(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := kv.Set(t.Context(), "slot", []byte("a long first value")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(t.Context(), "slot", []byte("v2")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := kv.Get(t.Context(), "slot")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("stale bytes left behind: %q", got)
	}

	// No temp files should remain after a successful rename.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "slot" {
			t.Errorf("unexpected leftover file %q", e.Name())
		}
	}
}

func TestFileKV_RejectsPathTraversalKeys(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		if err := kv.Set(t.Context(), key, []byte("x")); err == nil {
			t.Errorf("expected invalid key error for %q", key)
		}
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape")); err == nil {
		t.Error("traversal key escaped the root directory")
	}
}

func TestFileKV_RequiresDirectory(t *testing.T) {
	if _, err := NewFileKV(""); err == nil {
		t.Error("expected error for empty directory")
	}
}
