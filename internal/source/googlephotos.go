package source

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	maxAlbumBytes = 32 << 20
	maxImageBytes = 64 << 20

	// Browser-like agent; the album page omits the photo list for unknown
	// clients.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var (
	photoURLRe = regexp.MustCompile(`https://lh\d+\.googleusercontent\.com/pw/[A-Za-z0-9_\-]+(?:=[A-Za-z0-9_\-]*)?`)
	sizeWHRe   = regexp.MustCompile(`=w\d+-h\d+[^=]*$`)
	sizeSRe    = regexp.MustCompile(`=s\d+[^=]*$`)
)

// GooglePhotosProvider serves random photos from a public shared album.
//
// The album page is fetched once per Refresh and every photo link in it is
// remembered at 2048px resolution. Photos themselves are downloaded on demand.
type GooglePhotosProvider struct {
	albumURL string
	client   *http.Client
	log      zerolog.Logger

	mu   sync.RWMutex
	urls []string
}

// NewGooglePhotosProvider returns a provider for albumURL. A nil client uses
// a client with a one minute timeout.
func NewGooglePhotosProvider(albumURL string, client *http.Client, logger zerolog.Logger) *GooglePhotosProvider {
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	return &GooglePhotosProvider{
		albumURL: albumURL,
		client:   client,
		log:      logger.With().Str("provider", GooglePhotos).Logger(),
	}
}

func (p *GooglePhotosProvider) Initialize(ctx context.Context) error {
	p.log.Info().Str("album", p.albumURL).Msg("google photos provider initializing")
	return p.Refresh(ctx)
}

// Refresh fetches the album page and replaces the known photo links. On error
// the previous links are kept.
func (p *GooglePhotosProvider) Refresh(ctx context.Context) error {
	start := time.Now()

	page, err := p.get(ctx, p.albumURL, maxAlbumBytes)
	if err != nil {
		return fmt.Errorf("failed to fetch album: %w", err)
	}

	urls := extractPhotoURLs(string(page))
	if len(urls) == 0 {
		return fmt.Errorf("%w in album %s", ErrNoImages, p.albumURL)
	}

	p.mu.Lock()
	p.urls = urls
	p.mu.Unlock()

	p.log.Info().Int("images", len(urls)).Dur("elapsed", time.Since(start)).Msg("album scan complete")
	return nil
}

func (p *GooglePhotosProvider) RandomImage(ctx context.Context) ([]byte, error) {
	p.mu.RLock()
	urls := p.urls
	p.mu.RUnlock()

	if len(urls) == 0 {
		return nil, ErrNoImages
	}
	i := rand.IntN(len(urls))
	u := urls[i]
	p.log.Debug().Int("index", i+1).Int("of", len(urls)).Str("url", truncate(u, 80)).Msg("fetching random image")

	data, err := p.get(ctx, u, maxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	return data, nil
}

func (p *GooglePhotosProvider) CacheSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.urls)
}

func (p *GooglePhotosProvider) Name() string {
	return GooglePhotos
}

func (p *GooglePhotosProvider) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, limit)
	}
	return b, nil
}

// extractPhotoURLs collects the distinct photo links of an album page, in
// page order, rewritten to request 2048px renditions.
func extractPhotoURLs(page string) []string {
	page = strings.NewReplacer(`\u003d`, "=", `\/`, "/").Replace(page)

	seen := make(map[string]bool)
	var urls []string
	for _, m := range photoURLRe.FindAllString(page, -1) {
		u := highRes(m)
		if seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// highRes rewrites the size suffix of a photo link: "=wW-hH..." becomes
// "=w2048-h2048", "=sN..." becomes "=s2048", and links with neither get
// "=w2048-h2048" appended.
func highRes(u string) string {
	u = sizeWHRe.ReplaceAllString(u, "=w2048-h2048")
	u = sizeSRe.ReplaceAllString(u, "=s2048")
	if !strings.Contains(u, "=w") && !strings.Contains(u, "=s") {
		u += "=w2048-h2048"
	}
	return u
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
