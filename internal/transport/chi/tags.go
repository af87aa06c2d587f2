package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/usecase/tagging"
)

// TagListResponse lists distinct tags in ascending order.
type TagListResponse struct {
	Tags []string `json:"tags"`
}

// TagWeight is one ranked tag.
type TagWeight struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// TagWeightListResponse lists tags by count descending, then tag ascending.
type TagWeightListResponse struct {
	Tags []TagWeight `json:"tags"`
}

// RebuildResponse reports one finished rebuild.
type RebuildResponse struct {
	Collection string `json:"collection"`
	IndexName  string `json:"index_name"`
	Documents  int    `json:"documents"`
	Entries    int    `json:"entries"`
	Skipped    bool   `json:"skipped,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// ReindexAcceptedResponse is returned when rebuilds are queued.
type ReindexAcceptedResponse struct {
	Queued []string `json:"queued"`
}

// ListTags handles GET /collections/{collection}/tags.
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tagging.Tags(r.Context(), chi.URLParam(r, "collection"), "")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// ListTagWeights handles GET /collections/{collection}/tags/weights.
func (s *Server) ListTagWeights(w http.ResponseWriter, r *http.Request) {
	weights, err := s.tagging.TagsWithWeight(r.Context(), chi.URLParam(r, "collection"), "")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]TagWeight, len(weights))
	for i, wt := range weights {
		items[i] = TagWeight{Tag: wt.Tag, Count: wt.Count}
	}
	writeJSON(w, http.StatusOK, TagWeightListResponse{Tags: items})
}

// Reindex handles POST /collections/{collection}/reindex.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	if s.opts.Reindexer != nil {
		if _, err := s.collections.Get(collection); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		if err := s.opts.Reindexer.RequestReindex(r.Context(), collection); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, ReindexAcceptedResponse{Queued: []string{collection}})
		return
	}

	res, err := s.tagging.Rebuild(r.Context(), collection)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rebuildToResponse(res))
}

// ReindexAll handles POST /reindex.
func (s *Server) ReindexAll(w http.ResponseWriter, r *http.Request) {
	if s.opts.Reindexer != nil {
		queued := make([]string, 0)
		for _, cfg := range s.collections.List() {
			if !cfg.IndexEnabled() {
				continue
			}
			if err := s.opts.Reindexer.RequestReindex(r.Context(), cfg.Name()); err != nil {
				s.handleDomainError(w, r, err)
				return
			}
			queued = append(queued, cfg.Name())
		}
		writeJSON(w, http.StatusAccepted, ReindexAcceptedResponse{Queued: queued})
		return
	}

	results, err := s.tagging.RebuildAll(r.Context())
	if err != nil {
		s.logger.Error("rebuild all", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "one or more rebuilds failed")
		return
	}
	items := make([]RebuildResponse, len(results))
	for i, res := range results {
		items[i] = rebuildToResponse(res)
	}
	writeJSON(w, http.StatusOK, items)
}

func rebuildToResponse(res tagging.RebuildResult) RebuildResponse {
	return RebuildResponse{
		Collection: res.Collection,
		IndexName:  res.IndexName,
		Documents:  res.Documents,
		Entries:    res.Entries,
		Skipped:    res.Skipped,
		DurationMs: res.Duration.Milliseconds(),
	}
}
