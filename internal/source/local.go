package source

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// imageExts are the file extensions LocalProvider picks up in a directory.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// LocalProvider serves a single image file or the images of one directory.
type LocalProvider struct {
	path string
	log  zerolog.Logger

	mu    sync.RWMutex
	files []string
}

func NewLocalProvider(path string, logger zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		path: path,
		log:  logger.With().Str("provider", Local).Logger(),
	}
}

func (p *LocalProvider) Initialize(ctx context.Context) error {
	if _, err := os.Stat(p.path); err != nil {
		return fmt.Errorf("local image not found: %w", err)
	}
	if err := p.Refresh(ctx); err != nil {
		return err
	}
	p.log.Info().Str("path", p.path).Int("images", p.CacheSize()).Msg("local provider initialized")
	return nil
}

// Refresh rescans the directory. For a single file it only checks that the
// file still exists.
func (p *LocalProvider) Refresh(ctx context.Context) error {
	info, err := os.Stat(p.path)
	if err != nil {
		return fmt.Errorf("local image not found: %w", err)
	}

	var files []string
	if !info.IsDir() {
		files = []string{p.path}
	} else {
		entries, err := os.ReadDir(p.path)
		if err != nil {
			return fmt.Errorf("failed to read image directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
				files = append(files, filepath.Join(p.path, e.Name()))
			}
		}
		sort.Strings(files)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoImages, p.path)
	}

	p.mu.Lock()
	p.files = files
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) RandomImage(ctx context.Context) ([]byte, error) {
	p.mu.RLock()
	files := p.files
	p.mu.RUnlock()

	if len(files) == 0 {
		return nil, ErrNoImages
	}
	path := files[rand.IntN(len(files))]
	p.log.Debug().Str("file", path).Msg("serving local image")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func (p *LocalProvider) CacheSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.files)
}

func (p *LocalProvider) Name() string {
	return Local
}
