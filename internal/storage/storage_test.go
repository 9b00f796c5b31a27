package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir(), 1024)
	require.NoError(t, err)

	key, size, err := store.Save(ctx, "Screenshot.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), size)
	assert.True(t, strings.HasSuffix(key, ".png"))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "deleting twice is fine")
}

func TestDiskStoreRejectsOversizedUpload(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 4)
	require.NoError(t, err)

	_, _, err = store.Save(context.Background(), "big.txt", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "../etc/passwd")
	assert.Error(t, err)
}
