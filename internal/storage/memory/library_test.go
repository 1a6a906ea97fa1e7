package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Faultbox/webray-editor/internal/storage"
)

func TestLibrary(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary()

	if _, err := lib.Get(ctx, "spheres"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	data := []byte(`{"objects":[]}`)
	if err := lib.Put(ctx, "spheres", data); err != nil {
		t.Fatalf("put: %v", err)
	}
	data[0] = 'X'

	got, err := lib.Get(ctx, "spheres")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"objects":[]}` {
		t.Errorf("expected stored copy, got %s", got)
	}

	if err := lib.Put(ctx, "a-scene", nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	names, _ := lib.List(ctx)
	if len(names) != 2 || names[0] != "a-scene" || names[1] != "spheres" {
		t.Errorf("expected sorted names, got %v", names)
	}

	hits, misses := lib.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}

	lib.Clear()
	names, _ = lib.List(ctx)
	if len(names) != 0 {
		t.Errorf("expected empty library after clear, got %v", names)
	}
}

func TestLibraryRejectsBadNames(t *testing.T) {
	lib := NewLibrary()
	for _, name := range []string{"", "../etc", "a/b", ".hidden"} {
		if err := lib.Put(context.Background(), name, []byte("{}")); !errors.Is(err, storage.ErrInvalidName) {
			t.Errorf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
}
