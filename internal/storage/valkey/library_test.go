package valkey

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/Faultbox/webray-editor/internal/storage"
)

// Set WEBRAY_TEST_VALKEY_ADDR to run against a live server.
func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	addr := os.Getenv("WEBRAY_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("WEBRAY_TEST_VALKEY_ADDR not set")
	}

	lib, err := Dial(addr, "webray-test:"+uuid.NewString()+":")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(lib.Close)

	if err := lib.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return lib
}

func TestLibrary(t *testing.T) {
	lib := newTestLibrary(t)
	ctx := context.Background()

	if _, err := lib.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	for _, name := range []string{"spheres", "glass"} {
		if err := lib.Put(ctx, name, []byte(`{"name":"`+name+`"}`)); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}

	got, err := lib.Get(ctx, "glass")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"name":"glass"}` {
		t.Errorf("unexpected data %s", got)
	}

	names, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "glass" || names[1] != "spheres" {
		t.Errorf("expected [glass spheres], got %v", names)
	}
}

func TestPutRejectsBadName(t *testing.T) {
	// Name validation happens before any round trip.
	lib := &Library{prefix: "x:"}
	if err := lib.Put(context.Background(), "a/b", nil); !errors.Is(err, storage.ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}
