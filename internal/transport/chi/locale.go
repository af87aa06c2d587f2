package chi

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/tagdex/internal/domain/locale"
)

// LocaleMiddleware stores the request locale in the context. Resolution order:
// the locale query parameter, the first acceptable Accept-Language entry, then def.
func LocaleMiddleware(def string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if loc := resolveLocale(r, def); loc != "" {
				r = r.WithContext(locale.WithLocale(r.Context(), loc))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveLocale(r *http.Request, def string) string {
	if q := r.URL.Query().Get("locale"); locale.IsValid(q) {
		return q
	}
	if h := r.Header.Get("Accept-Language"); h != "" {
		tags, _, err := language.ParseAcceptLanguage(h)
		if err == nil {
			for _, t := range tags {
				if t == language.Und {
					continue
				}
				if s := t.String(); locale.IsValid(s) {
					return s
				}
			}
		}
	}
	return def
}
