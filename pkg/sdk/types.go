package tagdex

import (
	"context"
	"time"

	"github.com/kailas-cloud/tagdex/internal/domain/locale"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

// Variant is the tag shape of a collection.
type Variant string

// Variant constants.
const (
	VariantFlat      Variant = Variant(tag.VariantFlat)
	VariantLocalized Variant = Variant(tag.VariantLocalized)
)

// Document is a tagged record. On Save, nil Tags and LocalizedTags leave the
// stored tags untouched; Fields are merged and an empty value removes a field.
type Document struct {
	ID     string
	Fields map[string]string
	// Tags is the display string of a flat collection ("" clears).
	Tags *string
	// LocalizedTags maps locale to display string. An empty non-nil map clears all locales.
	LocalizedTags map[string]string
	// TagList is the parsed flat tag list. Read-only.
	TagList []string
}

// TagList returns a pointer to raw for Document.Tags.
func TagList(raw string) *string { return &raw }

// Page is one page of a tag query.
type Page struct {
	Documents []Document
	Total     int
	Offset    int
	Limit     int
}

// TagWeight is a tag with the number of documents carrying it.
type TagWeight struct {
	Tag   string
	Count int64
}

// CollectionInfo describes a declared collection.
type CollectionInfo struct {
	Name         string
	Variant      Variant
	IndexEnabled bool
	IndexName    string
	Separator    string
	Locales      []string
}

// BatchResult is the outcome of one item of SaveMany or DeleteMany.
type BatchResult struct {
	ID  string
	Err error
}

// RebuildInfo summarizes an index rebuild.
type RebuildInfo struct {
	Collection string
	IndexName  string
	Documents  int
	Entries    int
	Skipped    bool
	Duration   time.Duration
}

// WithLocale sets the locale used by localized collections for this call chain.
func WithLocale(ctx context.Context, loc string) context.Context {
	return locale.WithLocale(ctx, loc)
}
