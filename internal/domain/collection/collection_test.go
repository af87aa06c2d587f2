package collection

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/tagdex/internal/domain"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

func boolPtr(b bool) *bool { return &b }

func TestNew_Defaults(t *testing.T) {
	cfg, err := New("articles", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Variant() != tag.VariantFlat || cfg.IsLocalized() {
		t.Errorf("variant = %s", cfg.Variant())
	}
	if !cfg.IndexEnabled() {
		t.Error("index must be enabled by default")
	}
	if cfg.Separator() != "," {
		t.Errorf("separator = %q", cfg.Separator())
	}
	if cfg.IndexName() != "articles_tags_index" {
		t.Errorf("index name = %q", cfg.IndexName())
	}
	if _, ok := cfg.NewTags().(*tag.Flat); !ok {
		t.Error("expected flat tags")
	}
}

func TestNew_Overrides(t *testing.T) {
	cfg, err := New("products", Options{
		Variant:     tag.VariantLocalized,
		EnableIndex: boolPtr(false),
		Separator:   ";",
		IndexName:   "product_cloud",
		Locales:     []string{"en", "pt-BR"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsLocalized() || cfg.IndexEnabled() || cfg.Separator() != ";" || cfg.IndexName() != "product_cloud" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	locales := cfg.Locales()
	locales[0] = "mutated"
	if cfg.Locales()[0] != "en" {
		t.Error("Locales leaked internal slice")
	}
	if _, ok := cfg.NewTags().(*tag.Localized); !ok {
		t.Error("expected localized tags")
	}
	if !cfg.HasLocale("pt-BR") || cfg.HasLocale("fr") || cfg.HasLocale("") {
		t.Error("HasLocale must match declared locales only")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		coll string
		opts Options
	}{
		{"empty name", "", Options{}},
		{"bad name", "my collection", Options{}},
		{"unknown variant", "c", Options{Variant: "nested"}},
		{"multi-char separator", "c", Options{Separator: ", "}},
		{"bad index name", "c", Options{IndexName: "a b"}},
		{"locales on flat", "c", Options{Locales: []string{"en"}}},
		{"invalid locale", "c", Options{Variant: tag.VariantLocalized, Locales: []string{"en_US"}}},
		{"duplicate locale", "c", Options{Variant: tag.VariantLocalized, Locales: []string{"en", "en"}}},
		{"localized without locales", "c", Options{Variant: tag.VariantLocalized}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.coll, tt.opts)
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	a, _ := New("b-coll", Options{})
	b, _ := New("a-coll", Options{})

	reg, err := NewRegistry(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := reg.All()
	if len(all) != 2 || all[0].Name() != "a-coll" {
		t.Errorf("All() not sorted: %v", all)
	}
	if _, err := reg.Get("missing"); !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Errorf("expected ErrCollectionNotFound, got %v", err)
	}
	got, err := reg.Get("b-coll")
	if err != nil || got.Name() != "b-coll" {
		t.Errorf("Get = %v, %v", got, err)
	}

	if _, err := NewRegistry(a, a); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected duplicate error, got %v", err)
	}
}
