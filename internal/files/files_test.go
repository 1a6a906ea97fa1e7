package files

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/webray-editor/internal/scene"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	src := scene.NewStore(nil)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, src.Snapshot()))
	assert.Contains(t, buf.String(), "\n    \"objects\"", "four-space indent")

	dst := scene.NewStore(&scene.Scene{
		Objects:        []scene.Object{},
		Materials:      []scene.Material{},
		Camera:         &scene.Camera{},
		RenderSettings: &scene.RenderSettings{TileSize: &scene.TileFull{}},
	})
	require.NoError(t, Load(dst, &buf))
	assert.Equal(t, src.Current(), dst.Current())
	assert.Equal(t, uint64(1), dst.Version())
}

func TestLoadInvalidLeavesDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"objects": [`},
		{"array", `[]`},
		{"missing camera", `{"objects":[],"materials":[],"render_settings":{"tile_size":{"type":"d_tile_size_full"}}}`},
		{"null materials", `{"objects":[],"materials":null,"camera":{},"render_settings":{"tile_size":{"type":"d_tile_size_full"}}}`},
		{"unknown material", `{"objects":[],"materials":[{"id":1,"type":{"type":"d_mat_glow"}}],"camera":{},"render_settings":{"tile_size":{"type":"d_tile_size_full"}}}`},
		{"wrong field type", `{"objects":[{"id":"one"}],"materials":[],"camera":{},"render_settings":{"tile_size":{"type":"d_tile_size_full"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := scene.NewStore(nil)
			var before bytes.Buffer
			require.NoError(t, Save(&before, store.Current()))

			err := Load(store, strings.NewReader(tt.doc))
			var ferr *FileFormatError
			require.ErrorAs(t, err, &ferr)

			var after bytes.Buffer
			require.NoError(t, Save(&after, store.Current()))
			assert.Equal(t, before.String(), after.String())
			assert.Equal(t, uint64(0), store.Version())
		})
	}
}

func TestDecodeEmptyLists(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"objects":[],"materials":[],"camera":{},"render_settings":{"tile_size":{"type":"d_tile_size","size":32}}}`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Objects)
	assert.Equal(t, &scene.Tile{Size: 32}, doc.RenderSettings.TileSize)
}

func TestSaveFileAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes", "scene.json")

	src := scene.NewStore(nil)
	require.NoError(t, SaveFile(src, path))

	dst := scene.NewStore(nil)
	_, err := dst.RemoveListItem(scene.Objects, 1)
	require.NoError(t, err)

	require.NoError(t, LoadFile(dst, path))
	assert.Equal(t, 5, dst.Current().Len(scene.Objects))

	require.NoError(t, os.WriteFile(path, []byte("nope"), 0644))
	err = LoadFile(dst, path)
	var ferr *FileFormatError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, path, ferr.Source)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	src := scene.NewStore(nil)
	require.NoError(t, SaveFile(src, path))

	store := scene.NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, store, nil) }()

	// Wait for the watcher to be registered.
	time.Sleep(100 * time.Millisecond)

	_, err := src.RemoveListItem(scene.Objects, 5)
	require.NoError(t, err)
	require.NoError(t, SaveFile(src, path))

	assert.Eventually(t, func() bool {
		return store.Current().Len(scene.Objects) == 4
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
