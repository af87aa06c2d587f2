package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
)

// CollectionResponse describes a configured collection.
type CollectionResponse struct {
	Name          string   `json:"name"`
	Variant       string   `json:"variant"`
	IndexEnabled  bool     `json:"index_enabled"`
	IndexName     string   `json:"index_name"`
	Separator     string   `json:"separator"`
	Locales       []string `json:"locales,omitempty"`
	DocumentCount *int     `json:"document_count,omitempty"`
}

// ListCollections handles GET /collections.
func (s *Server) ListCollections(w http.ResponseWriter, _ *http.Request) {
	cfgs := s.collections.List()
	items := make([]CollectionResponse, len(cfgs))
	for i, c := range cfgs {
		items[i] = collectionToResponse(c)
	}
	writeJSON(w, http.StatusOK, items)
}

// GetCollection handles GET /collections/{collection}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	cfg, err := s.collections.Get(name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := collectionToResponse(cfg)
	if count, err := s.tagging.Count(r.Context(), name); err == nil {
		resp.DocumentCount = &count
	}
	writeJSON(w, http.StatusOK, resp)
}

func collectionToResponse(c domcol.Config) CollectionResponse {
	return CollectionResponse{
		Name:         c.Name(),
		Variant:      string(c.Variant()),
		IndexEnabled: c.IndexEnabled(),
		IndexName:    c.IndexName(),
		Separator:    c.Separator(),
		Locales:      c.Locales(),
	}
}
