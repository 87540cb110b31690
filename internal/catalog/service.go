// Package catalog serves the product, customer and settings lookups the
// terminal needs to build carts, with a Redis cache in front of the business
// backend.
package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/common"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

const (
	settingsKey    = "catalog:settings"
	productsPrefix = "catalog:products:"
	customerPrefix = "catalog:customers:"
)

// Service orchestrates backend lookups and caching.
type Service struct {
	backend  backend.Backend
	products *Cache
	settings *Cache
	logger   zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Backend backend.Backend
	// Products caches product and customer listings.
	Products *Cache
	// Settings caches the POS settings document.
	Settings *Cache
	Logger   zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Backend == nil {
		return nil, errors.New("catalog: backend is required")
	}
	return &Service{
		backend:  cfg.Backend,
		products: cfg.Products,
		settings: cfg.Settings,
		logger:   cfg.Logger,
	}, nil
}

func productsKey(filter backend.ProductFilter) string {
	return productsPrefix + common.Sha256Hex(strings.ToLower(filter.Search)+"|"+strings.ToLower(filter.Category))
}

func customersKey(filter backend.CustomerFilter) string {
	return customerPrefix + common.Sha256Hex(strings.ToLower(filter.Search))
}

// Products lists sellable products, serving from cache when possible. Cache
// failures are logged and degrade to a direct backend call.
func (s *Service) Products(ctx context.Context, filter backend.ProductFilter) ([]pos.Product, error) {
	key := productsKey(filter)
	var cached []pos.Product
	hit, err := s.products.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Msg("product cache read failed")
	}
	if hit {
		return cached, nil
	}
	products, err := s.backend.ListActiveProducts(ctx, filter)
	if err != nil {
		return nil, backendError(err)
	}
	if err := s.products.SetJSON(ctx, key, products); err != nil {
		s.logger.Warn().Err(err).Msg("product cache write failed")
	}
	return products, nil
}

// Customers lists customers matching the filter, cache-first.
func (s *Service) Customers(ctx context.Context, filter backend.CustomerFilter) ([]pos.Customer, error) {
	key := customersKey(filter)
	var cached []pos.Customer
	hit, err := s.products.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Msg("customer cache read failed")
	}
	if hit {
		return cached, nil
	}
	customers, err := s.backend.ListCustomers(ctx, filter)
	if err != nil {
		return nil, backendError(err)
	}
	if err := s.products.SetJSON(ctx, key, customers); err != nil {
		s.logger.Warn().Err(err).Msg("customer cache write failed")
	}
	return customers, nil
}

// Settings returns the POS configuration, cache-first. The settings document
// changes rarely so it gets its own longer-lived cache.
func (s *Service) Settings(ctx context.Context) (pos.Settings, error) {
	var cached pos.Settings
	hit, err := s.settings.GetJSON(ctx, settingsKey, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Msg("settings cache read failed")
	}
	if hit {
		return cached, nil
	}
	settings, err := s.backend.GetPosSettings(ctx)
	if err != nil {
		return pos.Settings{}, backendError(err)
	}
	if err := s.settings.SetJSON(ctx, settingsKey, settings); err != nil {
		s.logger.Warn().Err(err).Msg("settings cache write failed")
	}
	return settings, nil
}

// RefreshSettings drops the cached settings and fetches them fresh.
func (s *Service) RefreshSettings(ctx context.Context) (pos.Settings, error) {
	if err := s.settings.Invalidate(ctx, settingsKey); err != nil {
		s.logger.Warn().Err(err).Msg("settings cache invalidation failed")
	}
	return s.Settings(ctx)
}

func backendError(err error) error {
	if errors.Is(err, backend.ErrNotFound) {
		return common.NewAppError(common.CodeNotFound, "not found", http.StatusNotFound, err)
	}
	return common.NewAppError(common.CodeBackendFailed, "business backend unavailable", http.StatusBadGateway, err)
}
