// Package tagindex holds the aggregate tag frequency records and the pure
// accumulate/rank logic behind index rebuilds and reads.
package tagindex

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

// Entry is one persisted aggregate: the number of documents holding Tag
// (in Locale, for localized collections; Locale is empty otherwise).
type Entry struct {
	Tag    string
	Locale string
	Count  int64
}

// Key returns the composite storage key of the entry.
func (e Entry) Key() string {
	return EncodeKey(e.Locale, e.Tag)
}

// EncodeKey builds the composite key: the bare tag for flat entries,
// "<locale>:<tag>" for localized ones.
func EncodeKey(locale, t string) string {
	if locale == "" {
		return t
	}
	return locale + ":" + t
}

// DecodeKey splits a composite key. Locales never contain ':' so the first
// colon is the boundary; flat keys are returned whole.
func DecodeKey(key string, localized bool) (locale, t string) {
	if !localized {
		return "", key
	}
	loc, rest, found := strings.Cut(key, ":")
	if !found {
		return "", key
	}
	return loc, rest
}

// Weight is a ranked (tag, count) pair used for tag clouds.
type Weight struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

type pairKey struct {
	locale string
	tag    string
}

// Accumulator sums emitted observations by (tag, locale). The result does not
// depend on emission order.
type Accumulator struct {
	counts map[pairKey]int64
	docs   int
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{counts: make(map[pairKey]int64)}
}

// Emit records one observation of tag in locale.
func (a *Accumulator) Emit(locale, t string) {
	a.counts[pairKey{locale: locale, tag: t}]++
}

// Add emits one observation per element of a document's tag collection. A tag
// repeated within the same document and locale is counted each time.
func (a *Accumulator) Add(tags tag.Collection) {
	a.docs++
	for _, p := range tags.Pairs() {
		a.Emit(p.Locale, p.Tag)
	}
}

// Documents returns how many tag collections were added.
func (a *Accumulator) Documents() int { return a.docs }

// Entries returns the accumulated records sorted by locale, then tag.
func (a *Accumulator) Entries() []Entry {
	out := make([]Entry, 0, len(a.counts))
	for k, n := range a.counts {
		out = append(out, Entry{Tag: k.tag, Locale: k.locale, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Locale != out[j].Locale {
			return out[i].Locale < out[j].Locale
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// ForLocale keeps the entries of one locale.
func ForLocale(entries []Entry, locale string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Locale == locale {
			out = append(out, e)
		}
	}
	return out
}

// Names returns the distinct tags, ascending.
func Names(entries []Entry) []string {
	seen := make(map[string]bool, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if seen[e.Tag] {
			continue
		}
		seen[e.Tag] = true
		out = append(out, e.Tag)
	}
	sort.Strings(out)
	return out
}

// Rank sums counts per tag and orders by count descending, ties by tag ascending.
func Rank(entries []Entry) []Weight {
	sums := make(map[string]int64, len(entries))
	for _, e := range entries {
		sums[e.Tag] += e.Count
	}
	out := make([]Weight, 0, len(sums))
	for t, n := range sums {
		out = append(out, Weight{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
