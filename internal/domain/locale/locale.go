// Package locale carries the caller's current locale through a context.
package locale

import (
	"context"
	"regexp"
)

var localeRegex = regexp.MustCompile(`^[A-Za-z]{2,8}(-[A-Za-z0-9]{1,8})*$`)

// IsValid reports whether s looks like a BCP 47 language tag (en, pt-BR, zh-Hant-TW).
func IsValid(s string) bool {
	return localeRegex.MatchString(s)
}

// Provider resolves the current locale at call time.
type Provider interface {
	Locale(ctx context.Context) string
}

type ctxKey struct{}

// WithLocale stores a locale in the context.
func WithLocale(ctx context.Context, loc string) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

// FromContext extracts a locale from the context.
func FromContext(ctx context.Context) (string, bool) {
	loc, ok := ctx.Value(ctxKey{}).(string)
	return loc, ok && loc != ""
}

// ContextProvider reads the locale from the context and falls back to Default.
type ContextProvider struct {
	Default string
}

// Locale implements Provider.
func (p ContextProvider) Locale(ctx context.Context) string {
	if loc, ok := FromContext(ctx); ok {
		return loc
	}
	return p.Default
}
