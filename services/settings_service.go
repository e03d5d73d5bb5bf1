package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pms/constants"
	apperrors "pms/errors"
	"pms/repositories"
	"pms/services/logger"
	"pms/types"
)

const defaultSettingTTL = 5 * time.Minute

// SettingsProvider answers business-rule setting lookups.
type SettingsProvider interface {
	Get(ctx context.Context, prop types.PropertyContext, name, def string) string
	Enabled(ctx context.Context, prop types.PropertyContext, name string) bool
}

type SettingsService struct {
	repo   repositories.ReferenceRepository
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

type SettingsServiceOptions struct {
	Repo   repositories.ReferenceRepository
	Cache  Cache
	TTL    time.Duration
	Logger logger.Logger
}

func NewSettingsService(opts SettingsServiceOptions) *SettingsService {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = defaultSettingTTL
	}
	return &SettingsService{repo: opts.Repo, cache: opts.Cache, ttl: ttl, logger: opts.Logger}
}

// Get returns the active setting value or def. Lookup failures are logged and fall back to def.
func (s *SettingsService) Get(ctx context.Context, prop types.PropertyContext, name, def string) string {
	key := fmt.Sprintf(constants.CacheKeySetting, prop.PropertyID, name)
	if s.cache != nil {
		var cached string
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached
		} else if !errors.Is(err, ErrCacheMiss) {
			s.logger.Debug("setting cache read %s: %v", key, err)
		}
	}

	setting, err := s.repo.GetSetting(ctx, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return def
	}
	if err != nil {
		s.logger.Error("load setting %s: %v", name, err)
		return def
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, setting.Value, s.ttl); err != nil {
			s.logger.Debug("setting cache write %s: %v", key, err)
		}
	}
	return setting.Value
}

// Enabled treats "1", "true" and "yes" as on.
func (s *SettingsService) Enabled(ctx context.Context, prop types.PropertyContext, name string) bool {
	switch s.Get(ctx, prop, name, "0") {
	case "1", "true", "yes":
		return true
	}
	return false
}
