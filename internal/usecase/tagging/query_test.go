package tagging

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/tagdex/internal/domain"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/locale"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

func pageIDs(p Page) []string {
	ids := make([]string, 0, len(p.Documents))
	for _, d := range p.Documents {
		ids = append(ids, d.ID())
	}
	return ids
}

func TestTaggedWithAllAndAny(t *testing.T) {
	f := newFixture(t, articles(t))
	ctx := context.Background()
	mustSave(t, f.svc, "articles", "doc", flatTags("interesting,stuff,good,bad"))

	query := []string{"interesting", "good", "wrong"}

	all, err := f.svc.TaggedWithAll(ctx, "articles", query, 0, 0)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if all.Total != 0 {
		t.Errorf("taggedWithAll must exclude the document, got %v", pageIDs(all))
	}

	anyOf, err := f.svc.TaggedWithAny(ctx, "articles", query, 0, 0)
	if err != nil {
		t.Fatalf("any: %v", err)
	}
	if !equalStrings(pageIDs(anyOf), []string{"doc"}) {
		t.Errorf("taggedWithAny = %v, want [doc]", pageIDs(anyOf))
	}
}

func TestTaggedWith(t *testing.T) {
	f := newFixture(t, articles(t))
	ctx := context.Background()
	mustSave(t, f.svc, "articles", "a", flatTags("food,ant"))
	mustSave(t, f.svc, "articles", "b", flatTags("bee"))
	mustSave(t, f.svc, "articles", "c", flatTags("food"))

	page, err := f.svc.TaggedWith(ctx, "articles", "food", 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalStrings(pageIDs(page), []string{"a", "c"}) || page.Total != 2 {
		t.Errorf("page = %v total %d", pageIDs(page), page.Total)
	}
}

func TestTagged_EmptyListMatchesNothing(t *testing.T) {
	f := newFixture(t, articles(t))
	ctx := context.Background()
	mustSave(t, f.svc, "articles", "a", flatTags("food"))

	for name, run := range map[string]func() (Page, error){
		"all": func() (Page, error) { return f.svc.TaggedWithAll(ctx, "articles", nil, 0, 0) },
		"any": func() (Page, error) { return f.svc.TaggedWithAny(ctx, "articles", []string{}, 0, 0) },
	} {
		page, err := run()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if page.Total != 0 || len(page.Documents) != 0 {
			t.Errorf("%s: expected no documents, got %v", name, pageIDs(page))
		}
	}
}

func TestTagged_Pagination(t *testing.T) {
	f := newFixture(t, articles(t))
	ctx := context.Background()

	page, err := f.svc.TaggedWith(ctx, "articles", "x", -5, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Offset != 0 || page.Limit != 100 {
		t.Errorf("offset/limit = %d/%d, want 0/100", page.Offset, page.Limit)
	}

	f.svc.WithPagination(5, 50)
	page, _ = f.svc.TaggedWith(ctx, "articles", "x", 0, 0)
	if page.Limit != 5 {
		t.Errorf("default limit = %d, want 5", page.Limit)
	}
	if page.Documents == nil {
		t.Error("empty page must carry an empty slice")
	}
}

func TestTagged_LocalizedUsesContextLocale(t *testing.T) {
	f := newFixture(t, products(t))
	mustSave(t, f.svc, "products", "p1", localizedTags(map[string]string{"en": "food", "pt-BR": "comida"}))
	mustSave(t, f.svc, "products", "p2", localizedTags(map[string]string{"en": "drink"}))

	en := locale.WithLocale(context.Background(), "en")
	page, err := f.svc.TaggedWith(en, "products", "food", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalStrings(pageIDs(page), []string{"p1"}) {
		t.Errorf("en page = %v", pageIDs(page))
	}

	pt := locale.WithLocale(context.Background(), "pt-BR")
	page, _ = f.svc.TaggedWith(pt, "products", "food", 0, 0)
	if page.Total != 0 {
		t.Errorf("food is not a pt-BR tag, got %v", pageIDs(page))
	}
}

func TestTagged_LocalizedWithoutLocale(t *testing.T) {
	f := newFixture(t, products(t))

	_, err := f.svc.TaggedWith(context.Background(), "products", "food", 0, 0)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestTagged_UndeclaredLocaleIsEmpty(t *testing.T) {
	f := newFixture(t, products(t))
	cfg := products(t)

	// stored before "fr" was dropped from the collection's locales
	legacy, err := domdoc.New("p9", tag.LoadLocalized(",", map[string]tag.Set{"fr": {"nourriture"}}))
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if _, err := f.docs.Save(context.Background(), cfg, legacy); err != nil {
		t.Fatalf("seed: %v", err)
	}

	fr := locale.WithLocale(context.Background(), "fr")
	page, err := f.svc.TaggedWith(fr, "products", "nourriture", 0, 0)
	if err != nil {
		t.Fatalf("undeclared locale must not error: %v", err)
	}
	if page.Total != 0 || len(page.Documents) != 0 {
		t.Errorf("undeclared locale page = %v", pageIDs(page))
	}

	page, err = f.svc.TaggedWithAny(fr, "products", []string{"nourriture"}, 0, 0)
	if err != nil || page.Total != 0 {
		t.Errorf("any-of in undeclared locale = %v / %v", pageIDs(page), err)
	}
}
