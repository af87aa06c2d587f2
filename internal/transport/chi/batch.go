package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/domain"
	dombatch "github.com/kailas-cloud/tagdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	batchuc "github.com/kailas-cloud/tagdex/internal/usecase/batch"
)

// BatchUpsertItem is one document of a batch upsert.
type BatchUpsertItem struct {
	ID string `json:"id"`
	SaveDocumentRequest
}

// BatchUpsertRequest is the body of POST /collections/{collection}/documents/batch.
type BatchUpsertRequest struct {
	Documents []BatchUpsertItem `json:"documents"`
}

// BatchDeleteRequest is the body of DELETE /collections/{collection}/documents/batch.
type BatchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BatchResultItem is the outcome of one batch item.
type BatchResultItem struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// BatchResponse summarizes a batch operation.
type BatchResponse struct {
	Items     []BatchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// BatchUpsert handles POST /collections/{collection}/documents/batch.
func (s *Server) BatchUpsert(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req BatchUpsertRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if n := len(req.Documents); n == 0 || n > s.batch.MaxSize() {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", s.batch.MaxSize()))
		return
	}

	items := make([]batchuc.Item, len(req.Documents))
	for i, d := range req.Documents {
		u := domdoc.Update{Fields: d.Fields, Tags: d.Tags}
		if d.LocalizedTags != nil {
			u.Localized = &domdoc.LocalizedUpdate{ByLocale: *d.LocalizedTags}
		}
		items[i] = batchuc.Item{ID: d.ID, Update: u}
	}

	results, err := s.batch.Upsert(r.Context(), collection, items)
	s.writeBatch(w, collection, results, err)
}

// BatchDelete handles DELETE /collections/{collection}/documents/batch.
func (s *Server) BatchDelete(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var req BatchDeleteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if n := len(req.IDs); n == 0 || n > s.batch.MaxSize() {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("ids count must be between 1 and %d", s.batch.MaxSize()))
		return
	}

	results, err := s.batch.Delete(r.Context(), collection, req.IDs)
	s.writeBatch(w, collection, results, err)
}

func (s *Server) writeBatch(w http.ResponseWriter, collection string, results []dombatch.Result, reindexErr error) {
	if reindexErr != nil {
		s.logger.Warn("reindex request failed after batch",
			zap.String("collection", collection),
			zap.Error(reindexErr),
		)
		w.Header().Set("X-Reindex-Status", "failed")
	}

	resp := BatchResponse{Items: make([]BatchResultItem, len(results))}
	for i, res := range results {
		resp.Items[i] = batchResultToResponse(res)
	}
	resp.Succeeded, resp.Failed = dombatch.Tally(results)
	writeJSON(w, http.StatusOK, resp)
}

func batchResultToResponse(r dombatch.Result) BatchResultItem {
	item := BatchResultItem{ID: r.ID(), Status: string(r.Status())}
	if r.Err() != nil {
		item.Error = &ErrorResponse{
			Code:    batchErrorCode(r.Err()),
			Message: safeDomainMessage(r.Err()),
		}
	}
	return item
}

func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
		return CodeCollectionNotFound
	case errors.Is(err, domain.ErrDocumentNotFound):
		return CodeDocumentNotFound
	case errors.Is(err, domain.ErrVariantMismatch):
		return CodeVariantMismatch
	case errors.Is(err, domain.ErrInvalidDocument):
		return CodeValidationFailed
	default:
		return CodeInternalError
	}
}
