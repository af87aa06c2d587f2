package document

import (
	"fmt"
	"maps"
	"regexp"

	"github.com/kailas-cloud/tagdex/internal/domain"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

var (
	idRegex     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	reservedIDs = map[string]bool{"search": true, "collections": true}
)

// MaxFields is the maximum number of plain fields per document.
const MaxFields = 64

// Document is a tagged record of one collection. Tag changes are tracked
// against the last persisted state.
type Document struct {
	id     string
	fields map[string]string
	tags   tag.Collection
}

// New validates the ID and creates a never-persisted document.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars, not reserved.
func New(id string, tags tag.Collection) (*Document, error) {
	if id == "" {
		return nil, fmt.Errorf("document ID is required: %w", domain.ErrInvalidDocument)
	}
	if len(id) > 256 {
		return nil, fmt.Errorf("document ID too long (max 256): %w", domain.ErrInvalidDocument)
	}
	if !idRegex.MatchString(id) {
		return nil, fmt.Errorf("document ID must be alphanumeric with underscores and hyphens: %w",
			domain.ErrInvalidDocument)
	}
	if reservedIDs[id] {
		return nil, fmt.Errorf("document ID %q is reserved: %w", id, domain.ErrInvalidDocument)
	}
	if tags == nil {
		return nil, fmt.Errorf("tag collection is required: %w", domain.ErrInvalidDocument)
	}
	return &Document{id: id, fields: map[string]string{}, tags: tags}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
// The tag collection is expected to be loaded, i.e. already committed.
func Reconstruct(id string, fields map[string]string, tags tag.Collection) *Document {
	if fields == nil {
		fields = map[string]string{}
	}
	return &Document{id: id, fields: fields, tags: tags}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Fields returns a copy of the plain fields.
func (d *Document) Fields() map[string]string { return maps.Clone(d.fields) }

// Tags returns the tag collection.
func (d *Document) Tags() tag.Collection { return d.tags }

// Flat returns the flat tag collection, if that is the document's variant.
func (d *Document) Flat() (*tag.Flat, bool) {
	f, ok := d.tags.(*tag.Flat)
	return f, ok
}

// Localized returns the localized tag collection, if that is the document's variant.
func (d *Document) Localized() (*tag.Localized, bool) {
	l, ok := d.tags.(*tag.Localized)
	return l, ok
}

// Update is a write request against a document. Nil members leave state untouched.
type Update struct {
	// Fields are merged into the plain fields; an empty value removes the field.
	Fields map[string]string
	// Tags replaces a flat tag set from a display string ("" clears).
	Tags *string
	// Localized merges per-locale display strings into a localized collection.
	Localized *LocalizedUpdate
}

// LocalizedUpdate carries per-locale display strings. A nil or empty ByLocale clears every locale.
type LocalizedUpdate struct {
	ByLocale map[string]string
}

// Apply merges an update into the document. Validation happens before any mutation.
func (d *Document) Apply(u Update) error {
	if u.Tags != nil && u.Localized != nil {
		return fmt.Errorf("both flat and localized tags given: %w", domain.ErrVariantMismatch)
	}

	merged := maps.Clone(d.fields)
	for k, v := range u.Fields {
		if k == "" {
			return fmt.Errorf("field name is required: %w", domain.ErrInvalidDocument)
		}
		if v == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	if len(merged) > MaxFields {
		return fmt.Errorf("too many fields (max %d): %w", MaxFields, domain.ErrInvalidDocument)
	}

	if u.Tags != nil {
		f, ok := d.Flat()
		if !ok {
			return fmt.Errorf("flat tags sent to %s collection: %w", d.tags.Variant(), domain.ErrVariantMismatch)
		}
		f.Set(*u.Tags)
	}
	if u.Localized != nil {
		l, ok := d.Localized()
		if !ok {
			return fmt.Errorf("localized tags sent to %s collection: %w", d.tags.Variant(), domain.ErrVariantMismatch)
		}
		l.Set(u.Localized.ByLocale)
	}

	d.fields = merged
	return nil
}

// ShouldReindex is the change gate: true only if the tag field changed since
// the last persist. Plain field changes never warrant a rebuild.
func (d *Document) ShouldReindex() bool {
	return d.tags.Changed()
}

// MarkPersisted commits the tag snapshot after a successful write.
func (d *Document) MarkPersisted() {
	d.tags.Commit()
}

// HasTags reports whether the document carries at least one tag.
func (d *Document) HasTags() bool {
	return !d.tags.IsEmpty()
}

// Values returns the stored values of a filter key for in-process evaluation.
// Tag keys resolve against the tag collection, other keys against plain fields.
func (d *Document) Values(key string) []string {
	if loc, ok := tag.SplitField(key); ok {
		switch t := d.tags.(type) {
		case *tag.Flat:
			if loc == "" {
				return t.Tags()
			}
		case *tag.Localized:
			if loc != "" {
				return t.Tags(loc)
			}
		}
		return nil
	}
	if v, ok := d.fields[key]; ok {
		return []string{v}
	}
	return nil
}
