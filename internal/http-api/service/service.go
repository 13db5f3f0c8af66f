package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"pwarestaurants/internal/http-api/models"

	"github.com/sirupsen/logrus"
)

// DefaultDescription is stored when a restaurant is created or updated
// without a description.
const DefaultDescription = "There is no description for this restaurant."

// DefaultTopLimit applies when the caller asks for no specific limit.
const DefaultTopLimit = 3

// IconStorage persists uploaded icons. Implemented by storage.IconStore.
type IconStorage interface {
	Validate(fh *multipart.FileHeader) error
	Save(fh *multipart.FileHeader) (string, error)
	Remove(name string) error
}

// TopRatedCache is an optional read-through cache for the top-rated list.
// Get reports a generation that must be handed back to Set, so rows read
// before an Invalidate are never stored after it. Implemented by
// cache.TopRatedCache.
type TopRatedCache interface {
	Get(ctx context.Context, limit int) (rows []models.TopRestaurant, gen int64, ok bool)
	Set(ctx context.Context, limit int, gen int64, rows []models.TopRestaurant)
	Invalidate(ctx context.Context)
}

type Options struct {
	// FoldNames makes restaurant name lookups case-insensitive.
	FoldNames bool
	// DefaultTopLimit replaces a missing or non-positive limit.
	DefaultTopLimit int
	Logger          logrus.FieldLogger
	// Now stamps new ratings; defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DefaultTopLimit < 1 {
		o.DefaultTopLimit = DefaultTopLimit
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// sideEffects holds the best-effort work shared by both services.
type sideEffects struct {
	icons IconStorage
	cache TopRatedCache
	log   logrus.FieldLogger
}

// removeIcon deletes an icon file; failures are only logged.
func (s sideEffects) removeIcon(name string) {
	if name == "" {
		return
	}
	if err := s.icons.Remove(name); err != nil {
		s.log.WithError(err).WithField("icon", name).Warn("failed to remove icon")
	}
}

func (s sideEffects) invalidateTopRated(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// normalizeDescription trims the description and falls back to the
// placeholder when nothing is left.
func normalizeDescription(desc *string) string {
	if desc == nil {
		return DefaultDescription
	}
	if trimmed := strings.TrimSpace(*desc); trimmed != "" {
		return trimmed
	}
	return DefaultDescription
}

// nameKey is the identity used for find-or-create.
func nameKey(name string, fold bool) string {
	if fold {
		return strings.ToLower(name)
	}
	return name
}
