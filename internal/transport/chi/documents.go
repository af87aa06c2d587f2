package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/usecase/tagging"
)

const maxBodyBytes = 1 << 20

// SaveDocumentRequest is the body of PUT /collections/{collection}/documents/{id}.
// Tags targets flat collections, LocalizedTags localized ones. Omitted members
// leave the stored value untouched.
type SaveDocumentRequest struct {
	Fields        map[string]string  `json:"fields,omitempty"`
	Tags          *string            `json:"tags,omitempty"`
	LocalizedTags *map[string]string `json:"localized_tags,omitempty"`
}

// DocumentResponse is a stored document with its tags in display form.
type DocumentResponse struct {
	ID            string            `json:"id"`
	Fields        map[string]string `json:"fields"`
	Tags          *string           `json:"tags,omitempty"`
	TagList       []string          `json:"tag_list,omitempty"`
	LocalizedTags map[string]string `json:"localized_tags,omitempty"`
}

// DocumentListResponse is one page of a tag query.
type DocumentListResponse struct {
	Items  []DocumentResponse `json:"items"`
	Total  int                `json:"total"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
}

// SaveDocument handles PUT /collections/{collection}/documents/{id}.
func (s *Server) SaveDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	var req SaveDocumentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	update := domdoc.Update{Fields: req.Fields, Tags: req.Tags}
	if req.LocalizedTags != nil {
		update.Localized = &domdoc.LocalizedUpdate{ByLocale: *req.LocalizedTags}
	}

	doc, created, err := s.tagging.Save(r.Context(), collection, id, update)
	if err != nil && doc == nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err != nil {
		// The document is stored; only the rebuild request failed.
		s.logger.Warn("reindex request failed after save",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err),
		)
		w.Header().Set("X-Reindex-Status", "failed")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", fmt.Sprintf("/collections/%s/documents/%s", collection, id))
	}
	writeJSON(w, status, documentToResponse(doc))
}

// GetDocument handles GET /collections/{collection}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.tagging.Get(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(doc))
}

// DeleteDocument handles DELETE /collections/{collection}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.tagging.Delete(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /collections/{collection}/documents. Exactly one of
// tagged_with, tagged_with_all or tagged_with_any selects the query.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	q := r.URL.Query()

	offset, err := intParam(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "offset: "+err.Error())
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "limit: "+err.Error())
		return
	}

	var (
		page     tagging.Page
		selected int
	)
	for _, k := range []string{"tagged_with", "tagged_with_all", "tagged_with_any"} {
		if q.Has(k) {
			selected++
		}
	}
	if selected != 1 {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery,
			"exactly one of tagged_with, tagged_with_all, tagged_with_any is required")
		return
	}

	ctx := r.Context()
	switch {
	case q.Has("tagged_with"):
		page, err = s.tagging.TaggedWith(ctx, collection, q.Get("tagged_with"), offset, limit)
	case q.Has("tagged_with_all"):
		page, err = s.tagging.TaggedWithAll(ctx, collection, nonEmpty(q["tagged_with_all"]), offset, limit)
	default:
		page, err = s.tagging.TaggedWithAny(ctx, collection, nonEmpty(q["tagged_with_any"]), offset, limit)
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]DocumentResponse, len(page.Documents))
	for i, d := range page.Documents {
		items[i] = documentToResponse(d)
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{
		Items:  items,
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
	})
}

func documentToResponse(doc *domdoc.Document) DocumentResponse {
	resp := DocumentResponse{ID: doc.ID(), Fields: doc.Fields()}
	if f, ok := doc.Flat(); ok {
		display := f.String()
		resp.Tags = &display
		resp.TagList = f.Tags()
	}
	if l, ok := doc.Localized(); ok {
		resp.LocalizedTags = make(map[string]string)
		for _, loc := range l.Locales() {
			resp.LocalizedTags[loc] = l.String(loc)
		}
	}
	return resp
}

var errNegative = errors.New("must not be negative")

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	if n < 0 {
		return 0, errNegative
	}
	return n, nil
}

// nonEmpty drops blank repeated values so ?tagged_with_all= means "no tags".
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
