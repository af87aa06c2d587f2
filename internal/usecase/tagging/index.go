package tagging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/tagindex"
	"github.com/kailas-cloud/tagdex/internal/metrics"
)

// RebuildResult summarizes one rebuild.
type RebuildResult struct {
	Collection string        `json:"collection"`
	IndexName  string        `json:"index_name"`
	Documents  int           `json:"documents"`
	Entries    int           `json:"entries"`
	Skipped    bool          `json:"skipped,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// RequestReindex implements Reindexer by rebuilding in the caller's goroutine.
func (s *Service) RequestReindex(ctx context.Context, collection string) error {
	_, err := s.Rebuild(ctx, collection)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ReindexRequestsTotal.WithLabelValues("sync", status).Inc()
	return err
}

// Rebuild recomputes the collection's tag index from a full scan and replaces
// the stored index. A disabled index makes this a no-op. On error the previously
// stored index is left as it was.
func (s *Service) Rebuild(ctx context.Context, collection string) (RebuildResult, error) {
	cfg, err := s.colls.Get(collection)
	if err != nil {
		return RebuildResult{}, err
	}
	return s.rebuild(ctx, cfg)
}

// RebuildAll rebuilds every configured collection, continuing past failures.
func (s *Service) RebuildAll(ctx context.Context) ([]RebuildResult, error) {
	var (
		results []RebuildResult
		errs    []error
	)
	for _, cfg := range s.colls.All() {
		res, err := s.rebuild(ctx, cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cfg.Name(), err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *Service) rebuild(ctx context.Context, cfg domcol.Config) (RebuildResult, error) {
	res := RebuildResult{Collection: cfg.Name(), IndexName: cfg.IndexName()}

	if !cfg.IndexEnabled() {
		s.logger.Debug("tag index disabled, rebuild skipped", zap.String("collection", cfg.Name()))
		metrics.RebuildsTotal.WithLabelValues(cfg.Name(), "skipped").Inc()
		res.Skipped = true
		return res, nil
	}

	start := time.Now()
	acc := tagindex.NewAccumulator()
	err := s.docs.Scan(ctx, cfg, func(doc *domdoc.Document) error {
		acc.Add(doc.Tags())
		return nil
	})
	if err == nil {
		entries := acc.Entries()
		res.Entries = len(entries)
		err = s.index.Replace(ctx, cfg.IndexName(), entries)
	}
	res.Documents = acc.Documents()
	res.Duration = time.Since(start)

	metrics.RebuildDuration.WithLabelValues(cfg.Name()).Observe(res.Duration.Seconds())
	if err != nil {
		metrics.RebuildsTotal.WithLabelValues(cfg.Name(), "error").Inc()
		s.logger.Error("tag index rebuild failed",
			zap.String("collection", cfg.Name()),
			zap.String("index", cfg.IndexName()),
			zap.Error(err),
		)
		return res, fmt.Errorf("rebuild %s: %w", cfg.IndexName(), err)
	}

	metrics.RebuildsTotal.WithLabelValues(cfg.Name(), "ok").Inc()
	metrics.IndexEntries.WithLabelValues(cfg.Name()).Set(float64(res.Entries))
	s.logger.Info("tag index rebuilt",
		zap.String("collection", cfg.Name()),
		zap.String("index", cfg.IndexName()),
		zap.Int("documents", res.Documents),
		zap.Int("entries", res.Entries),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// Tags lists the distinct indexed tags in ascending order. Localized collections
// read one locale: loc, or the caller's current locale when loc is empty.
func (s *Service) Tags(ctx context.Context, collection, loc string) ([]string, error) {
	entries, err := s.readIndex(ctx, collection, loc)
	if err != nil {
		return nil, err
	}
	return tagindex.Names(entries), nil
}

// TagsWithWeight lists (tag, count) ranked by count descending, ties by tag ascending.
func (s *Service) TagsWithWeight(ctx context.Context, collection, loc string) ([]tagindex.Weight, error) {
	entries, err := s.readIndex(ctx, collection, loc)
	if err != nil {
		return nil, err
	}
	return tagindex.Rank(entries), nil
}

func (s *Service) readIndex(ctx context.Context, collection, loc string) ([]tagindex.Entry, error) {
	cfg, err := s.colls.Get(collection)
	if err != nil {
		return nil, err
	}
	if !cfg.IndexEnabled() {
		return []tagindex.Entry{}, nil
	}

	entries, err := s.index.Entries(ctx, cfg.IndexName(), cfg.IsLocalized())
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", cfg.IndexName(), err)
	}
	if !cfg.IsLocalized() {
		return entries, nil
	}

	if loc == "" && s.locales != nil {
		loc = s.locales.Locale(ctx)
	}
	s.logger.Debug("reading localized index",
		zap.String("collection", cfg.Name()),
		zap.String("locale", loc),
		zap.Int("entries", len(entries)),
	)
	return tagindex.ForLocale(entries, loc), nil
}
