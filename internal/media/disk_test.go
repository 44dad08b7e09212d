package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	key := Key(42, "Pancakes")
	ref, err := store.Store(ctx, key, []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if ref != key {
		t.Fatalf("ref = %q, want %q", ref, key)
	}

	data, err := os.ReadFile(store.Path(ref))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("stored content = %q", data)
	}
}

func TestDiskStoreOverwrite(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	key := Key(42, "Pancakes")
	if _, err := store.Store(ctx, key, []byte("v1")); err != nil {
		t.Fatalf("Store v1: %v", err)
	}
	if _, err := store.Store(ctx, key, []byte("v2")); err != nil {
		t.Fatalf("Store v2: %v", err)
	}
	data, err := os.ReadFile(store.Path(key))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "v2" {
		t.Fatalf("stored content = %q, want v2", data)
	}

	// No temp files may survive a completed write.
	entries, err := os.ReadDir(filepath.Dir(store.Path(key)))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("leftover files: %d entries", len(entries))
	}
}

func TestDiskStoreRename(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	oldKey := Key(42, "Pancakes")
	newKey := Key(42, "Crepes")
	if _, err := store.Store(ctx, oldKey, []byte("photo")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	ref, err := store.Rename(ctx, oldKey, newKey)
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if ref != newKey {
		t.Fatalf("ref = %q, want %q", ref, newKey)
	}
	if _, err := os.Stat(store.Path(oldKey)); !os.IsNotExist(err) {
		t.Fatalf("old key still present (err=%v)", err)
	}
	if _, err := os.Stat(store.Path(newKey)); err != nil {
		t.Fatalf("new key missing: %v", err)
	}
}

func TestDiskStoreDeleteAbsent(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if err := store.Delete(context.Background(), Key(42, "Ghost")); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestKeyDistinguishesSimilarNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	spaced := Key(7, "a b")
	scored := Key(7, "a_b")
	dashed := Key(7, "a-b")
	if spaced == scored || spaced == dashed || scored == dashed {
		t.Fatalf("keys collide: %q %q %q", spaced, scored, dashed)
	}

	if _, err := store.Store(ctx, spaced, []byte("spaced")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := store.Store(ctx, scored, []byte("scored")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := store.Delete(ctx, spaced); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	data, err := os.ReadFile(store.Path(scored))
	if err != nil {
		t.Fatalf("sibling photo lost: %v", err)
	}
	if string(data) != "scored" {
		t.Fatalf("sibling content = %q", data)
	}
}

func TestKeySanitizesUnsafeRunes(t *testing.T) {
	k := Key(7, "Mom's Best/Worst Pie")
	if filepath.IsAbs(k) {
		t.Fatalf("key must be relative: %q", k)
	}
	dir, _ := filepath.Split(filepath.FromSlash(k))
	if dir != filepath.FromSlash("7/") {
		t.Fatalf("key dir = %q, want owner-scoped dir", dir)
	}
}
