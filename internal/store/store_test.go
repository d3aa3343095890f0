package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *FrameStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "frames.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFrameStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	created := time.Unix(1700000000, 123)
	require.NoError(t, s.Put(ctx, "a", &Entry{Width: 800, Height: 480, BMP: []byte("BMdata"), Created: created}))

	e, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 800, e.Width)
	assert.Equal(t, 480, e.Height)
	assert.Equal(t, []byte("BMdata"), e.BMP)
	assert.True(t, created.Equal(e.Created))
}

func TestFrameStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, "k", &Entry{Width: 1, Height: 1, BMP: []byte{1}}))
	require.NoError(t, s.Put(ctx, "k", &Entry{Width: 2, Height: 2, BMP: []byte{2}}))

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{2}, e.BMP)
	assert.False(t, e.Created.IsZero(), "Put stamps a creation time")
}

func TestFrameStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(ctx, fmt.Sprintf("k%d", i), &Entry{
			Width: 1, Height: 1, BMP: []byte{byte(i)}, Created: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	removed, err := s.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	for i := 0; i < 5; i++ {
		_, ok, err := s.Get(ctx, fmt.Sprintf("k%d", i))
		require.NoError(t, err)
		assert.Equal(t, i >= 3, ok, "k%d", i)
	}

	removed, err = s.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFrameStore_Reopen(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "frames.db")

	s, err := Open(file)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "persist", &Entry{Width: 3, Height: 4, BMP: []byte("x")}))
	require.NoError(t, s.Close())

	s, err = Open(file)
	require.NoError(t, err)
	defer s.Close()

	e, ok, err := s.Get(ctx, "persist")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, e.Width)
}

func TestFrameStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			assert.NoError(t, s.Put(ctx, key, &Entry{Width: i, Height: i, BMP: []byte{byte(i)}}))
			_, _, err := s.Get(ctx, key)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestFrameStore_CanceledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Get(ctx, "k")
	assert.Error(t, err)
}
