// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/database/postgres"
	"github.com/qolzam/mailer/internal/pkg/log"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
)

// BaseService holds the infrastructure shared by every feature: the database pool and the cache.
type BaseService struct {
	DB    *postgres.Client
	Cache *cache.GenericCacheService

	config *ServiceConfig
}

// ServiceConfig controls how the base service is brought up.
type ServiceConfig struct {
	AutoMigrate bool
	MaxRetries  int
	RetryDelay  time.Duration
}

// NewBaseService connects to PostgreSQL (retrying while it starts), applies migrations when
// DB_AUTO_MIGRATE is set and builds the cache.
func NewBaseService(ctx context.Context, cfg *platformconfig.Config) (*BaseService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("platform configuration is required")
	}

	s := &BaseService{
		config: &ServiceConfig{
			AutoMigrate: cfg.Database.AutoMigrate,
			MaxRetries:  3,
			RetryDelay:  time.Second,
		},
	}

	err := s.ExecuteWithRetry(ctx, func() error {
		client, err := postgres.NewClient(ctx, cfg.Database.Postgres)
		if err != nil {
			return err
		}
		s.DB = client
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}

	if s.config.AutoMigrate {
		applied, err := s.DB.Migrate(ctx)
		if err != nil {
			s.DB.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		for _, name := range applied {
			log.Info("[Platform] applied migration %s", name)
		}
	}

	s.Cache = cache.NewServiceFromConfig(cfg.Cache)
	return s, nil
}

// NewBaseServiceWithClients wraps existing clients. Tests use it to inject isolated databases.
func NewBaseServiceWithClients(db *postgres.Client, cacheService *cache.GenericCacheService) *BaseService {
	return &BaseService{
		DB:     db,
		Cache:  cacheService,
		config: &ServiceConfig{MaxRetries: 0},
	}
}

// ExecuteWithRetry runs fn until it succeeds or the retries are used up, doubling the delay each time.
func (s *BaseService) ExecuteWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := s.config.RetryDelay

	for i := 0; i <= s.config.MaxRetries; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if i == s.config.MaxRetries {
			break
		}
		log.Warn("[Platform] attempt %d failed, retrying in %s: %v", i+1, delay, lastErr)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}

	return fmt.Errorf("operation failed after %d retries: %w", s.config.MaxRetries, lastErr)
}

// HealthCheck pings the database.
func (s *BaseService) HealthCheck(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("database is not configured")
	}
	return s.DB.Ping(ctx)
}

// Close closes the cache and the database pool.
func (s *BaseService) Close() error {
	var errs []error
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	if s.DB != nil {
		errs = append(errs, s.DB.Close())
	}
	return errors.Join(errs...)
}
