package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemend/pagemend/internal/config"
	"github.com/pagemend/pagemend/internal/domain/shared"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(slog.Default(), &config.StorageConfig{Root: t.TempDir()})
	require.NoError(t, err)
	return store
}

func TestLocalStore_PutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "docs/d1/pages/1.png", []byte("page-bytes")))

	data, err := store.Get(ctx, "docs/d1/pages/1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("page-bytes"), data)

	exists, err := store.Exists(ctx, "docs/d1/pages/1.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "docs/none.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestLocalStore_RejectsEscapingRefs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, ref := range []string{"../outside.png", "a/../../outside.png", "/etc/passwd"} {
		_, err := store.Get(ctx, ref)
		assert.ErrorIs(t, err, ErrInvalidRef, "ref %q", ref)

		err = store.Put(ctx, ref, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidRef, "ref %q", ref)
	}
}

func TestLocalStore_PageRefs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	documentID := uuid.New()
	pageID := uuid.New()

	// An untouched page resolves to its original artifact
	ref, err := store.CurrentRef(ctx, documentID, pageID)
	require.NoError(t, err)
	assert.Contains(t, ref, pageID.String())

	corrected := "docs/" + documentID.String() + "/pages/corrected.png"
	require.NoError(t, store.SetCurrentRef(ctx, documentID, pageID, corrected))

	ref, err = store.CurrentRef(ctx, documentID, pageID)
	require.NoError(t, err)
	assert.Equal(t, corrected, ref)
}

func TestOverlayCompositor_Overlay(t *testing.T) {
	store := newTestStore(t)
	compositor := NewOverlayCompositor(slog.Default(), store)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "docs/d1/pages/1.png", []byte("page-bytes")))

	region := shared.BBox{X: 10, Y: 20, Width: 80, Height: 16}
	resultRef, err := compositor.Overlay(ctx, "docs/d1/pages/1.png", region, "receive")
	require.NoError(t, err)
	assert.NotEqual(t, "docs/d1/pages/1.png", resultRef)

	// The result carries the page bytes plus an overlay sidecar
	data, err := store.Get(ctx, resultRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("page-bytes"), data)

	sidecar, err := store.Get(ctx, resultRef+".overlay.json")
	require.NoError(t, err)

	var spec overlaySpec
	require.NoError(t, json.Unmarshal(sidecar, &spec))
	assert.Equal(t, "docs/d1/pages/1.png", spec.BaseRef)
	assert.Equal(t, region, spec.Region)
	assert.Equal(t, "receive", spec.Text)
}

func TestOverlayCompositor_EmptyRegion(t *testing.T) {
	store := newTestStore(t)
	compositor := NewOverlayCompositor(slog.Default(), store)

	_, err := compositor.Overlay(context.Background(), "docs/d1/pages/1.png", shared.BBox{}, "text")
	require.Error(t, err)
}
