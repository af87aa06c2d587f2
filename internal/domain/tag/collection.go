package tag

import (
	"encoding/json"
	"sort"
)

// Variant selects the shape of a document's tag collection.
type Variant string

const (
	// VariantFlat stores a single tag set per document.
	VariantFlat Variant = "flat"
	// VariantLocalized stores one tag set per locale.
	VariantLocalized Variant = "localized"
)

// IsValid checks if the variant is supported.
func (v Variant) IsValid() bool {
	return v == VariantFlat || v == VariantLocalized
}

// Pair is one emitted (locale, tag) observation. Locale is empty for flat collections.
type Pair struct {
	Locale string
	Tag    string
}

// Collection is the per-document tag state shared by both variants.
type Collection interface {
	Variant() Variant
	// Changed reports whether the tags differ from the last committed snapshot.
	Changed() bool
	// Commit records the current tags as persisted.
	Commit()
	// Pairs lists every (locale, tag) observation on the document.
	Pairs() []Pair
	IsEmpty() bool
}

var (
	_ Collection = (*Flat)(nil)
	_ Collection = (*Localized)(nil)
)

// Flat is a single tag set rendered with a configured separator.
type Flat struct {
	sep      string
	tags     Set
	snapshot string
}

// NewFlat creates an empty, never-persisted flat collection.
func NewFlat(sep string) *Flat {
	f := &Flat{sep: sep, tags: Set{}}
	f.snapshot = f.serialize()
	return f
}

// LoadFlat hydrates a flat collection from storage; the loaded value is the snapshot.
func LoadFlat(sep string, tags Set) *Flat {
	f := &Flat{sep: sep, tags: tags.Clone()}
	f.Commit()
	return f
}

// Set replaces the whole tag set from a display string. Blank input clears it.
func (f *Flat) Set(raw string) {
	f.tags = Parse(raw, f.sep)
}

// String renders the tags as a display string.
func (f *Flat) String() string { return f.tags.Join(f.sep) }

// Tags returns a copy of the current tag set.
func (f *Flat) Tags() Set { return f.tags.Clone() }

// Variant returns VariantFlat.
func (f *Flat) Variant() Variant { return VariantFlat }

// Changed reports whether the tag set differs from the snapshot.
func (f *Flat) Changed() bool { return f.serialize() != f.snapshot }

// Commit records the current tag set as persisted.
func (f *Flat) Commit() { f.snapshot = f.serialize() }

// IsEmpty reports whether the document has no tags.
func (f *Flat) IsEmpty() bool { return len(f.tags) == 0 }

// Pairs emits every tag with an empty locale.
func (f *Flat) Pairs() []Pair {
	out := make([]Pair, 0, len(f.tags))
	for _, t := range f.tags {
		out = append(out, Pair{Tag: t})
	}
	return out
}

func (f *Flat) serialize() string {
	b, _ := json.Marshal([]string(f.tags.Clone()))
	return string(b)
}

// Localized maps locale identifiers to tag sets.
type Localized struct {
	sep      string
	tags     map[string]Set
	snapshot string
}

// NewLocalized creates an empty, never-persisted localized collection.
func NewLocalized(sep string) *Localized {
	l := &Localized{sep: sep, tags: map[string]Set{}}
	l.snapshot = l.serialize()
	return l
}

// LoadLocalized hydrates a localized collection from storage.
func LoadLocalized(sep string, byLocale map[string]Set) *Localized {
	l := &Localized{sep: sep, tags: cloneLocales(byLocale)}
	l.Commit()
	return l
}

// Set merges per locale: every listed locale is replaced from its display string
// and unlisted locales keep their tags. A nil or empty map clears all locales.
func (l *Localized) Set(byLocale map[string]string) {
	if len(byLocale) == 0 {
		l.tags = map[string]Set{}
		return
	}

	next := cloneLocales(l.tags)
	for loc, raw := range byLocale {
		next[loc] = Parse(raw, l.sep)
	}
	l.tags = next
}

// Tags returns the tag set of a locale; unknown locales yield an empty set.
func (l *Localized) Tags(locale string) Set {
	return l.tags[locale].Clone()
}

// String renders the tag set of a locale as a display string.
func (l *Localized) String(locale string) string {
	return l.tags[locale].Join(l.sep)
}

// Locales returns the locales present, sorted.
func (l *Localized) Locales() []string {
	out := make([]string, 0, len(l.tags))
	for loc := range l.tags {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// All returns a copy of the whole mapping.
func (l *Localized) All() map[string]Set { return cloneLocales(l.tags) }

// Variant returns VariantLocalized.
func (l *Localized) Variant() Variant { return VariantLocalized }

// Changed reports whether the serialized mapping differs from the snapshot.
func (l *Localized) Changed() bool { return l.serialize() != l.snapshot }

// Commit records the current mapping as persisted.
func (l *Localized) Commit() { l.snapshot = l.serialize() }

// IsEmpty reports whether no locale carries a tag.
func (l *Localized) IsEmpty() bool {
	for _, s := range l.tags {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// Pairs emits every (locale, tag) observation, locales in sorted order.
func (l *Localized) Pairs() []Pair {
	var out []Pair
	for _, loc := range l.Locales() {
		for _, t := range l.tags[loc] {
			out = append(out, Pair{Locale: loc, Tag: t})
		}
	}
	return out
}

// serialize relies on encoding/json sorting map keys.
func (l *Localized) serialize() string {
	b, _ := json.Marshal(cloneLocales(l.tags))
	return string(b)
}

func cloneLocales(m map[string]Set) map[string]Set {
	c := make(map[string]Set, len(m))
	for k, v := range m {
		c[k] = v.Clone()
	}
	return c
}
