package collection

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/kailas-cloud/tagdex/internal/domain"
	"github.com/kailas-cloud/tagdex/internal/domain/locale"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IndexSuffix is appended to the collection name to derive the default index name.
const IndexSuffix = "_tags_index"

// Options are the raw per-collection settings before validation.
type Options struct {
	Variant     tag.Variant
	EnableIndex *bool // nil means enabled
	Separator   string
	IndexName   string
	Locales     []string
}

// Config is the tagging configuration of one document collection (immutable value object).
type Config struct {
	name        string
	variant     tag.Variant
	enableIndex bool
	separator   string
	indexName   string
	locales     []string
}

// New validates options and creates a Config with defaults applied:
// flat variant, index enabled, "," separator, "<name>_tags_index".
func New(name string, opts Options) (Config, error) {
	if err := validateName(name); err != nil {
		return Config{}, err
	}

	variant := opts.Variant
	if variant == "" {
		variant = tag.VariantFlat
	}
	if !variant.IsValid() {
		return Config{}, fmt.Errorf("collection %s: invalid variant %q: %w", name, variant, domain.ErrInvalidConfig)
	}

	sep := opts.Separator
	if sep == "" {
		sep = tag.DefaultSeparator
	}
	if utf8.RuneCountInString(sep) != 1 {
		return Config{}, fmt.Errorf("collection %s: separator must be a single character, got %q: %w",
			name, sep, domain.ErrInvalidConfig)
	}

	indexName := opts.IndexName
	if indexName == "" {
		indexName = DefaultIndexName(name)
	}
	if !nameRegex.MatchString(indexName) {
		return Config{}, fmt.Errorf("collection %s: index name %q must be alphanumeric with underscores and hyphens: %w",
			name, indexName, domain.ErrInvalidConfig)
	}

	locales, err := validateLocales(name, variant, opts.Locales)
	if err != nil {
		return Config{}, err
	}

	enabled := true
	if opts.EnableIndex != nil {
		enabled = *opts.EnableIndex
	}

	return Config{
		name:        name,
		variant:     variant,
		enableIndex: enabled,
		separator:   sep,
		indexName:   indexName,
		locales:     locales,
	}, nil
}

// DefaultIndexName derives the index name from the collection name.
func DefaultIndexName(name string) string {
	return name + IndexSuffix
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required: %w", domain.ErrInvalidConfig)
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64): %w", domain.ErrInvalidConfig)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens: %w",
			domain.ErrInvalidConfig)
	}
	return nil
}

func validateLocales(name string, variant tag.Variant, locales []string) ([]string, error) {
	if variant == tag.VariantFlat {
		if len(locales) > 0 {
			return nil, fmt.Errorf("collection %s: locales are only valid for localized collections: %w",
				name, domain.ErrInvalidConfig)
		}
		return nil, nil
	}
	if len(locales) == 0 {
		return nil, fmt.Errorf("collection %s: localized collections must declare at least one locale: %w",
			name, domain.ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(locales))
	out := make([]string, 0, len(locales))
	for _, loc := range locales {
		if !locale.IsValid(loc) {
			return nil, fmt.Errorf("collection %s: invalid locale %q: %w", name, loc, domain.ErrInvalidConfig)
		}
		if seen[loc] {
			return nil, fmt.Errorf("collection %s: duplicate locale %q: %w", name, loc, domain.ErrInvalidConfig)
		}
		seen[loc] = true
		out = append(out, loc)
	}
	return out, nil
}

// Name returns the collection name.
func (c Config) Name() string { return c.name }

// Variant returns the tag collection shape.
func (c Config) Variant() tag.Variant { return c.variant }

// IsLocalized returns true for localized collections.
func (c Config) IsLocalized() bool { return c.variant == tag.VariantLocalized }

// IndexEnabled reports whether a tag index is maintained.
func (c Config) IndexEnabled() bool { return c.enableIndex }

// Separator returns the display string separator.
func (c Config) Separator() string { return c.separator }

// IndexName returns the name of the derived index collection.
func (c Config) IndexName() string { return c.indexName }

// Locales returns the declared locales (localized collections only).
func (c Config) Locales() []string {
	out := make([]string, len(c.locales))
	copy(out, c.locales)
	return out
}

// HasLocale reports whether loc is one of the declared locales.
func (c Config) HasLocale(loc string) bool {
	return slices.Contains(c.locales, loc)
}

// NewTags returns an empty tag collection of the configured variant.
func (c Config) NewTags() tag.Collection {
	if c.IsLocalized() {
		return tag.NewLocalized(c.separator)
	}
	return tag.NewFlat(c.separator)
}

// Registry holds the configured collections by name.
type Registry struct {
	byName map[string]Config
}

// NewRegistry builds a registry, rejecting duplicate names.
func NewRegistry(configs ...Config) (*Registry, error) {
	r := &Registry{byName: make(map[string]Config, len(configs))}
	for _, c := range configs {
		if _, dup := r.byName[c.name]; dup {
			return nil, fmt.Errorf("duplicate collection %q: %w", c.name, domain.ErrInvalidConfig)
		}
		r.byName[c.name] = c
	}
	return r, nil
}

// Get looks up a collection by name.
func (r *Registry) Get(name string) (Config, error) {
	c, ok := r.byName[name]
	if !ok {
		return Config{}, fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
	}
	return c, nil
}

// All returns every collection sorted by name.
func (r *Registry) All() []Config {
	out := make([]Config, 0, len(r.byName))
	for _, c := range r.byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
