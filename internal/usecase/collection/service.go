package collection

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
)

// Service exposes the configured collections and keeps their storage schema
// in line with the configuration.
type Service struct {
	reg    Registry
	schema SchemaRepository
	logger *zap.Logger
}

// New creates a collection service. schema can be nil.
func New(reg Registry, schema SchemaRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{reg: reg, schema: schema, logger: logger}
}

// Sync provisions every configured collection. It is idempotent and keeps
// going past individual failures.
func (s *Service) Sync(ctx context.Context) error {
	if s.schema == nil {
		return nil
	}
	var errs []error
	for _, cfg := range s.reg.All() {
		if err := s.schema.Ensure(ctx, cfg); err != nil {
			errs = append(errs, fmt.Errorf("ensure collection %s: %w", cfg.Name(), err))
			continue
		}
		s.logger.Info("collection ready",
			zap.String("collection", cfg.Name()),
			zap.String("variant", string(cfg.Variant())),
			zap.Bool("index_enabled", cfg.IndexEnabled()),
		)
	}
	return errors.Join(errs...)
}

// Get returns a configured collection.
func (s *Service) Get(name string) (domcol.Config, error) {
	return s.reg.Get(name)
}

// List returns every configured collection sorted by name.
func (s *Service) List() []domcol.Config {
	return s.reg.All()
}

// Stored returns the provisioned metadata of a collection.
func (s *Service) Stored(ctx context.Context, name string) (map[string]string, error) {
	if _, err := s.reg.Get(name); err != nil {
		return nil, err
	}
	if s.schema == nil {
		return map[string]string{}, nil
	}
	meta, err := s.schema.Stored(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("stored collection: %w", err)
	}
	return meta, nil
}

// Drop removes the storage schema of a configured collection. Documents are kept.
func (s *Service) Drop(ctx context.Context, name string) error {
	if _, err := s.reg.Get(name); err != nil {
		return err
	}
	if s.schema == nil {
		return nil
	}
	if err := s.schema.Drop(ctx, name); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}
