package source

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config selects where images come from.
type Config struct {
	AlbumURL     string
	LocalPath    string
	RefreshHours float64
}

// Status reports the state of a Source.
type Status struct {
	Provider     *string    `json:"provider"`
	CachedImages int        `json:"cachedImages"`
	LastRefresh  *time.Time `json:"lastRefresh"`
}

// Source owns the active provider and its refresh schedule.
type Source struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger

	// refreshEvery is derived from cfg.RefreshHours; 0 disables Run.
	refreshEvery time.Duration

	mu          sync.RWMutex
	provider    Provider
	lastRefresh time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient sets the client remote providers use.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		s.client = c
	}
}

func New(cfg Config, logger zerolog.Logger, opts ...Option) *Source {
	s := &Source{
		cfg:          cfg,
		log:          logger.With().Str("component", "source").Logger(),
		refreshEvery: time.Duration(cfg.RefreshHours * float64(time.Hour)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize detects the provider from the album link, builds it and blocks
// until it has images.
func (s *Source) Initialize(ctx context.Context) error {
	name, err := DetectProvider(s.cfg.AlbumURL)
	if err != nil {
		return err
	}

	var p Provider
	switch name {
	case GooglePhotos:
		s.log.Info().Str("provider", name).Str("album", s.cfg.AlbumURL).Msg("detected provider")
		p = NewGooglePhotosProvider(s.cfg.AlbumURL, s.client, s.log)
	case Local:
		s.log.Info().Msg("no album configured, using local provider")
		p = NewLocalProvider(s.cfg.LocalPath, s.log)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}

	return s.initialize(ctx, p)
}

// initialize installs p once it is ready.
func (s *Source) initialize(ctx context.Context, p Provider) error {
	if err := p.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s provider: %w", p.Name(), err)
	}

	s.mu.Lock()
	s.provider = p
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Source) active() (Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.provider == nil {
		return nil, ErrNotInitialized
	}
	return s.provider, nil
}

// RandomImage returns a random image from the provider.
func (s *Source) RandomImage(ctx context.Context) ([]byte, error) {
	p, err := s.active()
	if err != nil {
		return nil, err
	}
	return p.RandomImage(ctx)
}

func (s *Source) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Status
	if s.provider != nil {
		name := s.provider.Name()
		st.Provider = &name
		st.CachedImages = s.provider.CacheSize()
	}
	if !s.lastRefresh.IsZero() {
		t := s.lastRefresh.UTC()
		st.LastRefresh = &t
	}
	return st
}

// ForceRefresh rescans the provider now.
func (s *Source) ForceRefresh(ctx context.Context) error {
	p, err := s.active()
	if err != nil {
		return err
	}
	if err := p.Refresh(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	return nil
}

// Run refreshes a remote provider every RefreshHours until ctx is done.
// Failed refreshes are logged and retried at the next tick. Local providers
// and a zero period return immediately.
func (s *Source) Run(ctx context.Context) error {
	p, err := s.active()
	if err != nil {
		return err
	}
	if p.Name() == Local || s.refreshEvery <= 0 {
		return nil
	}

	s.log.Info().Dur("every", s.refreshEvery).Msg("scheduling cache refresh")
	ticker := time.NewTicker(s.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.log.Info().Msg("starting scheduled cache refresh")
			if err := s.ForceRefresh(ctx); err != nil {
				s.log.Error().Err(err).Msg("scheduled cache refresh failed")
				continue
			}
			s.log.Info().Int("images", p.CacheSize()).Msg("scheduled cache refresh complete")
		}
	}
}
