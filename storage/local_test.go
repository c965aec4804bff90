package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	content := []byte("%PDF-1.4 fake document body")
	require.NoError(t, s.Upload(ctx, "manual.pdf", bytes.NewReader(content)))

	body, err := s.Download(ctx, "manual.pdf")
	require.NoError(t, err)
	defer body.Close()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalStorage_List(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "a.pdf", bytes.NewReader([]byte("aaa"))))
	require.NoError(t, s.Upload(ctx, "b.pdf", bytes.NewReader([]byte("bb"))))
	// Subdirectories are not objects.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	objects, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 2)

	sizes := map[string]int64{}
	for _, obj := range objects {
		sizes[obj.Name] = obj.Size
	}
	assert.Equal(t, int64(3), sizes["a.pdf"])
	assert.Equal(t, int64(2), sizes["b.pdf"])
}

func TestLocalStorage_DownloadMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Download(context.Background(), "nope.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object not found")
}

func TestLocalStorage_Delete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "gone.pdf", bytes.NewReader([]byte("x"))))
	require.NoError(t, s.Delete(ctx, "gone.pdf"))

	objects, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, objects)

	// Deleting a missing object is not an error.
	assert.NoError(t, s.Delete(ctx, "gone.pdf"))
}

func TestLocalStorage_NameCannotEscapeBase(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "../escape.pdf", bytes.NewReader([]byte("x"))))

	// The separator is flattened, so the file stays inside the base dir.
	_, err = os.Stat(filepath.Join(dir, ".._escape.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.pdf"))
	assert.True(t, os.IsNotExist(err))
}
