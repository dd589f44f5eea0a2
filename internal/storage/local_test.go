package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct {
	data []byte
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("client went away")
}

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func TestNewLocalStorage_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	content := []byte("hello asset")

	require.NoError(t, s.Save(ctx, "file-1.txt", bytes.NewReader(content), int64(len(content)), "text/plain"))

	rc, obj, err := s.Open(ctx, "file-1.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)

	assert.Equal(t, content, data)
	assert.Equal(t, "file-1.txt", obj.Name)
	assert.Equal(t, int64(len(content)), obj.Size)

	_, err = os.Stat(filepath.Join(s.Dir(), "file-1.txt"+tempSuffix))
	assert.True(t, os.IsNotExist(err), "temp file must not survive a successful save")

	require.NoError(t, s.Delete(ctx, "file-1.txt"))
	_, _, err = s.Open(ctx, "file-1.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_DeleteMissingIsNotAnError(t *testing.T) {
	s := newLocal(t)
	assert.NoError(t, s.Delete(context.Background(), "file-404.png"))
}

func TestLocalStorage_FailedWriteLeavesNothing(t *testing.T) {
	s := newLocal(t)

	err := s.Save(context.Background(), "file-2.mp4", &failingReader{data: []byte("partial")}, 100, "video/mp4")
	require.Error(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorage_CancelledContextLeavesNothing(t *testing.T) {
	s := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, "file-3.png", bytes.NewReader([]byte("data")), 4, "image/png")
	assert.ErrorIs(t, err, context.Canceled)

	objects, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLocalStorage_RejectsPathNames(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../escape.txt", "a/b.txt", `a\b.txt`} {
		t.Run(name, func(t *testing.T) {
			err := s.Save(ctx, name, bytes.NewReader(nil), 0, "text/plain")
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.ErrorIs(t, s.Delete(ctx, name), ErrInvalidName)
		})
	}
}

func TestLocalStorage_List(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "file-a.txt", bytes.NewReader([]byte("a")), 1, "text/plain"))
	require.NoError(t, s.Save(ctx, "file-b.txt", bytes.NewReader([]byte("bb")), 2, "text/plain"))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "subdir"), 0o750))

	objects, err := s.List(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, o.Name)
	}
	assert.ElementsMatch(t, []string{"file-a.txt", "file-b.txt"}, names)
}
