// Package source supplies the photos the frame server renders.
//
// A Provider holds a set of candidate images and hands out a random one on
// request. LocalProvider serves files from disk; GooglePhotosProvider scans a
// public shared album. Source picks the provider from the configured album
// link and keeps remote albums fresh.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInitialized is returned by Source methods called before Initialize.
	ErrNotInitialized = errors.New("image source not initialized")

	// ErrNoImages is returned when a provider has nothing to serve.
	ErrNoImages = errors.New("no images available")

	// ErrUnknownProvider is returned for album links no provider recognizes.
	ErrUnknownProvider = errors.New("unable to detect provider")

	// ErrUnsupportedProvider is returned for recognized album hosts that have
	// no provider yet.
	ErrUnsupportedProvider = errors.New("provider not implemented")

	// ErrTooLarge is returned when a download exceeds its size limit.
	ErrTooLarge = errors.New("response too large")
)

// Provider names.
const (
	Local        = "local"
	GooglePhotos = "google-photos"
	ICloud       = "icloud"
)

// Provider is a collection of images to pick from.
type Provider interface {
	// Initialize prepares the provider and blocks until images are available.
	Initialize(ctx context.Context) error

	// RandomImage returns the encoded bytes of a randomly chosen image.
	RandomImage(ctx context.Context) ([]byte, error)

	// Refresh rescans the collection.
	Refresh(ctx context.Context) error

	// CacheSize returns the number of images known to the provider.
	CacheSize() int

	Name() string
}

// DetectProvider returns the provider name for an album link. An empty link
// selects the local provider.
func DetectProvider(url string) (string, error) {
	if url == "" {
		return Local, nil
	}

	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "photos.app.goo.gl"), strings.Contains(lower, "photos.google.com/share"):
		return GooglePhotos, nil
	case strings.Contains(lower, "icloud.com/sharedalbum"):
		return ICloud, nil
	}
	return "", fmt.Errorf("%w from URL: %s", ErrUnknownProvider, url)
}
