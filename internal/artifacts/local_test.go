package artifacts

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_SaveLoad(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	blob := []byte("model bytes")
	if err := store.Save(ctx, "alice@example.com", blob); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("Load = %q, want %q", got, blob)
	}
}

func TestLocalStore_Overwrite(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "u", []byte("v1")); err != nil {
		t.Fatalf("Save v1: %v", err)
	}
	if err := store.Save(ctx, "u", []byte("v2")); err != nil {
		t.Fatalf("Save v2: %v", err)
	}

	got, err := store.Load(ctx, "u")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Load = %q, want v2 (overwrite semantics)", got)
	}
}

func TestLocalStore_NotFound(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	_, err = store.Load(context.Background(), "nobody")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.UserID != "nobody" {
		t.Errorf("UserID = %q, want nobody", notFound.UserID)
	}
}

func TestLocalStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if err := store.Save(context.Background(), "u", []byte("blob")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file %q left behind", e.Name())
		}
	}
}

func TestLocalStore_SanitizesUserID(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "../escape", []byte("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "../escape")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "x" {
		t.Errorf("round trip = %q, want x", got)
	}

	// Everything must live inside the store directory.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file in %s, got %d", dir, len(entries))
	}
	if filepath.Dir(filepath.Join(dir, entries[0].Name())) != dir {
		t.Error("artifact escaped the store directory")
	}
}
