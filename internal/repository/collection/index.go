package collection

import (
	"github.com/kailas-cloud/tagdex/internal/db"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

// buildIndex creates the FT index definition for a collection's documents.
// Flat collections index $.tags[*] as "tags"; localized collections index one
// TAG attribute per declared locale, aliased from the logical "tags.<locale>" key.
func (r *Repo) buildIndex(cfg domcol.Config) (*db.IndexDefinition, error) {
	b := db.NewIndex(r.indexName(cfg.Name())).
		OnJSON().
		Prefix(r.collectionPrefix(cfg.Name()))

	if !cfg.IsLocalized() {
		b.JSONTag(jsonTagPath(false, ""), db.FieldAlias(tag.Field))
		return b.Build()
	}

	for _, loc := range cfg.Locales() {
		b.JSONTag(jsonTagPath(true, loc), db.FieldAlias(tag.LocaleField(loc)))
	}
	return b.Build()
}
