package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/simplepublish"
	"github.com/tendant/simple-publish/pkg/simplepublish/assetstore/memory"
)

func TestPutGetDelete(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	id, err := store.Put(ctx, simplepublish.Blob{
		Data:     []byte("bytes"),
		MimeType: "image/png",
		FileName: "photo.png",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, simplepublish.LocalRefPrefix))
	assert.Equal(t, 1, store.Len())

	blob, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), blob.Data)
	assert.Equal(t, "image/png", blob.MimeType)
	assert.Equal(t, "photo.png", blob.FileName)

	require.NoError(t, store.Delete(ctx, id))
	assert.Zero(t, store.Len())

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, simplepublish.ErrAssetNotFound)
	assert.ErrorIs(t, store.Delete(ctx, id), simplepublish.ErrAssetNotFound)
}

func TestKeysAreUnique(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := store.Put(ctx, simplepublish.Blob{Data: []byte("x")})
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
