package collection

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
)

// configToHash converts a collection config to the metadata map stored with HSET.
// The stored copy lets Ensure detect schema drift between deploys.
func configToHash(cfg domcol.Config) map[string]string {
	return map[string]string{
		"name":         cfg.Name(),
		"variant":      string(cfg.Variant()),
		"enable_index": strconv.FormatBool(cfg.IndexEnabled()),
		"separator":    cfg.Separator(),
		"index_name":   cfg.IndexName(),
		"locales":      strings.Join(cfg.Locales(), ","),
	}
}

// schemaChanged reports whether stored metadata describes a different FT schema.
// Only the variant and the declared locales shape the index.
func schemaChanged(stored, want map[string]string) bool {
	return stored["variant"] != want["variant"] || stored["locales"] != want["locales"]
}

func metadataEqual(stored, want map[string]string) bool {
	return maps.Equal(stored, want)
}

// jsonTagPath returns the JSON path holding the tags of one locale.
func jsonTagPath(localized bool, loc string) string {
	if !localized {
		return "$.tags[*]"
	}
	return fmt.Sprintf("$.localized_tags['%s'][*]", loc)
}
