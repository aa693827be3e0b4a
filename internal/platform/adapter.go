package platform

import (
	"context"
	"errors"
	"time"

	"github.com/maheshrc27/crossflow/internal/models"
)

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrNotPollable         = errors.New("platform does not support content listing")
	ErrNotPublishable      = errors.New("platform does not support publishing")
)

// ContentItem is a normalized externally observed post, independent of the
// platform it came from.
type ContentItem struct {
	ExternalID   string
	Type         string
	Title        string
	Caption      string
	URL          string
	MediaURL     string
	ThumbnailURL string
	PublishedAt  time.Time
	Metadata     map[string]string
}

type PublishOptions struct {
	Caption        string
	Title          string
	Privacy        string
	Tags           []string
	DisableComment bool
	// MediaURL overrides the content's own media URL, e.g. after re-hosting.
	MediaURL string
}

// PublishResult is the uniform outcome of a publish call. Adapters fold every
// platform failure into it; callers branch on Success only.
type PublishResult struct {
	Success        bool
	PlatformPostID string
	PlatformURL    string
	Error          string
}

func publishFailure(err error) PublishResult {
	return PublishResult{Success: false, Error: err.Error()}
}

// Adapter is one platform variant. Capabilities are split so a platform can
// support publishing without being a valid trigger source.
type Adapter interface {
	Platform() string
	EnsureValidToken(ctx context.Context, conn *models.Connection) (string, error)
}

type Lister interface {
	Adapter
	ListSince(ctx context.Context, conn *models.Connection, since time.Time) ([]ContentItem, error)
}

type Publisher interface {
	Adapter
	Publish(ctx context.Context, conn *models.Connection, content ContentItem, opts PublishOptions) PublishResult
}

// Registry is the single polymorphic lookup keyed by platform identifier.
// New platforms extend the variant set without touching callers.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

func (r *Registry) Lookup(platform string) (Adapter, error) {
	a, ok := r.adapters[platform]
	if !ok {
		return nil, ErrUnsupportedPlatform
	}
	return a, nil
}

func (r *Registry) Lister(platform string) (Lister, error) {
	a, err := r.Lookup(platform)
	if err != nil {
		return nil, err
	}
	l, ok := a.(Lister)
	if !ok {
		return nil, ErrNotPollable
	}
	return l, nil
}

func (r *Registry) Publisher(platform string) (Publisher, error) {
	a, err := r.Lookup(platform)
	if err != nil {
		return nil, err
	}
	p, ok := a.(Publisher)
	if !ok {
		return nil, ErrNotPublishable
	}
	return p, nil
}

// Pollable reports whether the platform can act as a trigger source.
func (r *Registry) Pollable(platform string) bool {
	_, err := r.Lister(platform)
	return err == nil
}
