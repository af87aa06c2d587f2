package tag

import "strings"

// DefaultSeparator splits and joins display strings when a collection declares none.
const DefaultSeparator = ","

// Set is one document's tags in one context (global or a single locale).
// Elements are trimmed and non-empty, in first-seen order. Duplicates are kept as given.
type Set []string

// Parse splits raw on sep, trims every token and drops the empty ones.
// Blank input yields an empty Set; Parse never fails.
func Parse(raw, sep string) Set {
	if strings.TrimSpace(raw) == "" {
		return Set{}
	}
	if sep == "" {
		sep = DefaultSeparator
	}

	parts := strings.Split(raw, sep)
	out := make(Set, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Join renders the set back to a display string.
func (s Set) Join(sep string) string {
	if sep == "" {
		sep = DefaultSeparator
	}
	return strings.Join(s, sep)
}

// Clone returns a copy that never aliases s. A nil set clones to an empty one.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	copy(c, s)
	return c
}

// Contains reports exact membership (no case folding).
func (s Set) Contains(tag string) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// ContainsAll reports whether s is a superset of tags. An empty tags list matches nothing.
func (s Set) ContainsAll(tags []string) bool {
	if len(tags) == 0 {
		return false
	}
	for _, t := range tags {
		if !s.Contains(t) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether s and tags intersect.
func (s Set) ContainsAny(tags []string) bool {
	for _, t := range tags {
		if s.Contains(t) {
			return true
		}
	}
	return false
}
