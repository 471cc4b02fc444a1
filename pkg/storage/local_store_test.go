package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreUpload(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "action-attachments", "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	err = store.Upload(ctx, "actions/a1/file.pdf", strings.NewReader("v1"), 2, "application/pdf", UploadOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "action-attachments", "actions", "a1", "file.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	err = store.Upload(ctx, "actions/a1/file.pdf", strings.NewReader("v2"), 2, "application/pdf", UploadOptions{})
	assert.ErrorIs(t, err, ErrObjectExists)

	err = store.Upload(ctx, "actions/a1/file.pdf", strings.NewReader("v2"), 2, "application/pdf", UploadOptions{Upsert: true})
	require.NoError(t, err)
	data, _ = os.ReadFile(filepath.Join(root, "action-attachments", "actions", "a1", "file.pdf"))
	assert.Equal(t, "v2", string(data))

	url, err := store.URL(ctx, "actions/a1/file.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/action-attachments/actions/a1/file.pdf", url)
}

func TestLocalStoreStaysInsideBucket(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "b", "/uploads")
	require.NoError(t, err)

	err = store.Upload(context.Background(), "../../escape.txt", strings.NewReader("x"), 1, "text/plain", UploadOptions{})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "b", "escape.txt"))
	assert.NoError(t, err)
}
