package tagdex

import "github.com/kailas-cloud/tagdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrCollectionNotFound = domain.ErrCollectionNotFound
	ErrDocumentNotFound   = domain.ErrDocumentNotFound
	ErrInvalidDocument    = domain.ErrInvalidDocument
	ErrInvalidConfig      = domain.ErrInvalidConfig
	ErrVariantMismatch    = domain.ErrVariantMismatch
	ErrInvalidQuery       = domain.ErrInvalidQuery
)
