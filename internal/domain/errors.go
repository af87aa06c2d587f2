package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrCollectionNotFound signals an undeclared collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidDocument signals a document that fails validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidConfig signals an invalid collection or service configuration.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrVariantMismatch signals flat tags sent to a localized collection or vice versa.
	ErrVariantMismatch = errors.New("tag variant mismatch")
	// ErrInvalidQuery signals a tag query that cannot be built.
	ErrInvalidQuery = errors.New("invalid query")
)
