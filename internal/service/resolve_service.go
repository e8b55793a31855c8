package service

import (
	"context"
	"fmt"
	"time"

	"admin-geocoder/internal/metrics"
	"admin-geocoder/internal/models"
	"admin-geocoder/internal/resolver"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// AdminResolver interface for dependency injection
type AdminResolver interface {
	Resolve(p orb.Point, code string) []*models.Admin
}

// ResolveCache interface for dependency injection
type ResolveCache interface {
	Key(lat, lon float64, code string) string
	Get(ctx context.Context, key string) ([]*models.Admin, bool, error)
	Set(ctx context.Context, key string, admins []*models.Admin) error
}

// Resolution is the set of admins containing a coordinate
type Resolution struct {
	Admins          []*models.Admin `json:"admins"`
	Weight          float64         `json:"weight"`
	AmbiguousLevels []int           `json:"ambiguous_levels,omitempty"`
}

// ResolveService contains the business logic for resolving admins of a coordinate
type ResolveService struct {
	resolver  AdminResolver
	cache     ResolveCache
	cityLevel int
}

// NewResolveService creates a new resolve service. cache may be nil
func NewResolveService(r AdminResolver, cache ResolveCache, cityLevel int) *ResolveService {
	return &ResolveService{resolver: r, cache: cache, cityLevel: cityLevel}
}

// ResolveAdmins returns the admins containing the coordinates, the authoritative
// code, when given, overriding its level
func (s *ResolveService) ResolveAdmins(ctx context.Context, lat, lon float64, code string) (*Resolution, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("service: invalid latitude: %f", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("service: invalid longitude: %f", lon)
	}

	start := time.Now()
	metrics.ResolveRequestsTotal.Inc()
	defer func() {
		metrics.ResolveDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var key string
	if s.cache != nil {
		key = s.cache.Key(lat, lon, code)
		admins, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("resolve cache read failed")
		} else if ok {
			metrics.CacheHitsTotal.Inc()
			return s.resolution(admins), nil
		}
		metrics.CacheMissesTotal.Inc()
	}

	admins := s.resolver.Resolve(models.NewCoord(lat, lon).Point(), code)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, admins); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("resolve cache write failed")
		}
	}
	return s.resolution(admins), nil
}

func (s *ResolveService) resolution(admins []*models.Admin) *Resolution {
	if admins == nil {
		admins = []*models.Admin{}
	}
	return &Resolution{
		Admins:          admins,
		Weight:          resolver.Weight(admins, s.cityLevel),
		AmbiguousLevels: resolver.AmbiguousLevels(admins),
	}
}
