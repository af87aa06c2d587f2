package document

import (
	"encoding/json"
	"fmt"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

// jsonDoc is the stored JSON shape of a document.
type jsonDoc struct {
	ID            string              `json:"id"`
	Fields        map[string]string   `json:"fields"`
	Tags          []string            `json:"tags,omitempty"`
	LocalizedTags map[string][]string `json:"localized_tags,omitempty"`
}

// buildJSONDoc converts a domain Document into its stored JSON shape.
func buildJSONDoc(doc *domdoc.Document) jsonDoc {
	out := jsonDoc{ID: doc.ID(), Fields: doc.Fields()}
	if flat, ok := doc.Flat(); ok {
		out.Tags = flat.Tags()
		return out
	}
	if loc, ok := doc.Localized(); ok {
		all := loc.All()
		out.LocalizedTags = make(map[string][]string, len(all))
		for l, set := range all {
			out.LocalizedTags[l] = set
		}
	}
	return out
}

// parseJSONDoc hydrates a domain Document using the collection's variant and separator.
func parseJSONDoc(cfg domcol.Config, id string, raw []byte) (*domdoc.Document, error) {
	var d jsonDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return hydrate(cfg, id, d), nil
}

// parseJSONGetResult unwraps a JSON.GET "$" reply, which is an array of matches.
func parseJSONGetResult(cfg domcol.Config, id string, raw []byte) (*domdoc.Document, error) {
	var docs []jsonDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("unmarshal JSON.GET result: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("empty JSON.GET result for %s", id)
	}
	return hydrate(cfg, id, docs[0]), nil
}

func hydrate(cfg domcol.Config, id string, d jsonDoc) *domdoc.Document {
	var tags tag.Collection
	if cfg.IsLocalized() {
		byLocale := make(map[string]tag.Set, len(d.LocalizedTags))
		for l, ts := range d.LocalizedTags {
			byLocale[l] = ts
		}
		tags = tag.LoadLocalized(cfg.Separator(), byLocale)
	} else {
		tags = tag.LoadFlat(cfg.Separator(), d.Tags)
	}
	return domdoc.Reconstruct(id, d.Fields, tags)
}

func marshalDoc(doc *domdoc.Document) ([]byte, error) {
	data, err := json.Marshal(buildJSONDoc(doc))
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}
