package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalProvider_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	writeFile(t, path, "jpeg-bytes")

	p := NewLocalProvider(path, zerolog.Nop())
	require.NoError(t, p.Initialize(context.Background()))

	assert.Equal(t, 1, p.CacheSize())
	assert.Equal(t, Local, p.Name())

	data, err := p.RandomImage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestLocalProvider_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), "a")
	writeFile(t, filepath.Join(dir, "b.PNG"), "b")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, ".hidden.jpg"), "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	p := NewLocalProvider(dir, zerolog.Nop())
	require.NoError(t, p.Initialize(context.Background()))
	assert.Equal(t, 2, p.CacheSize())

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		data, err := p.RandomImage(context.Background())
		require.NoError(t, err)
		seen[string(data)] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)

	writeFile(t, filepath.Join(dir, "c.webp"), "c")
	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 3, p.CacheSize())
}

func TestLocalProvider_Errors(t *testing.T) {
	p := NewLocalProvider(filepath.Join(t.TempDir(), "missing.jpg"), zerolog.Nop())
	err := p.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = p.RandomImage(context.Background())
	assert.ErrorIs(t, err, ErrNoImages)

	empty := NewLocalProvider(t.TempDir(), zerolog.Nop())
	assert.ErrorIs(t, empty.Initialize(context.Background()), ErrNoImages)
}

func TestLocalProvider_RefreshKeepsFilesOnError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), "a")

	p := NewLocalProvider(dir, zerolog.Nop())
	require.NoError(t, p.Initialize(context.Background()))

	require.NoError(t, os.Remove(filepath.Join(dir, "a.jpg")))
	assert.ErrorIs(t, p.Refresh(context.Background()), ErrNoImages)
	assert.Equal(t, 1, p.CacheSize())
}
