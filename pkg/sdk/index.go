package tagdex

import (
	"context"
	"fmt"
	"time"
)

// IndexService reads and rebuilds the tag index of a single collection.
type IndexService struct {
	collection string
	svc        taggingUseCase
	obs        *observer
}

// Tags lists distinct tags ascending. For localized collections loc selects
// the partition; "" falls back to the context locale.
func (s *IndexService) Tags(ctx context.Context, loc string) (tags []string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("tags", s.collection, start, err) }()

	tags, err = s.svc.Tags(ctx, s.collection, loc)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// Weights lists tags by document count descending, ties by tag ascending.
func (s *IndexService) Weights(ctx context.Context, loc string) (weights []TagWeight, err error) {
	start := time.Now()
	defer func() { s.obs.observe("weights", s.collection, start, err) }()

	ws, err := s.svc.TagsWithWeight(ctx, s.collection, loc)
	if err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}
	weights = make([]TagWeight, len(ws))
	for i, w := range ws {
		weights[i] = TagWeight{Tag: w.Tag, Count: w.Count}
	}
	return weights, nil
}

// Rebuild recomputes the index from every document of the collection.
func (s *IndexService) Rebuild(ctx context.Context) (info RebuildInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("rebuild", s.collection, start, err) }()

	res, err := s.svc.Rebuild(ctx, s.collection)
	if err != nil {
		return RebuildInfo{}, fmt.Errorf("rebuild: %w", err)
	}
	if !res.Skipped {
		s.obs.rebuilt(s.collection, res.Entries)
	}
	return RebuildInfo{
		Collection: res.Collection,
		IndexName:  res.IndexName,
		Documents:  res.Documents,
		Entries:    res.Entries,
		Skipped:    res.Skipped,
		Duration:   res.Duration,
	}, nil
}
