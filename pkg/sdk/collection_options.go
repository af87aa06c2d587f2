package tagdex

import "github.com/kailas-cloud/tagdex/internal/config"

// CollectionOption configures a collection declaration.
type CollectionOption interface {
	applyCollection(*config.CollectionConfig)
}

// collectionOptionFunc adapts a function to the CollectionOption interface.
type collectionOptionFunc func(*config.CollectionConfig)

func (f collectionOptionFunc) applyCollection(c *config.CollectionConfig) { f(c) }

// Localized makes the collection keep one tag set per locale.
// The listed locales get their own search field on Redis/Valkey.
func Localized(locales ...string) CollectionOption {
	return collectionOptionFunc(func(c *config.CollectionConfig) {
		c.Variant = string(VariantLocalized)
		c.Locales = locales
	})
}

// WithSeparator sets the tag separator of the display string. Default: ",".
func WithSeparator(sep string) CollectionOption {
	return collectionOptionFunc(func(c *config.CollectionConfig) {
		c.Separator = sep
	})
}

// WithIndexName overrides the default "<collection>_tags_index".
func WithIndexName(name string) CollectionOption {
	return collectionOptionFunc(func(c *config.CollectionConfig) {
		c.IndexName = name
	})
}

// WithoutIndex disables the tag index; writes never trigger a rebuild.
func WithoutIndex() CollectionOption {
	return collectionOptionFunc(func(c *config.CollectionConfig) {
		off := false
		c.EnableIndex = &off
	})
}
