package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/tagdex/internal/domain"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/locale"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
	"github.com/kailas-cloud/tagdex/internal/domain/tagindex"
	healthuc "github.com/kailas-cloud/tagdex/internal/usecase/health"
	"github.com/kailas-cloud/tagdex/internal/usecase/tagging"
)

// --- fakes ---

type fakeTagging struct {
	saveDoc    *domdoc.Document
	saveCreate bool
	saveErr    error
	lastUpdate domdoc.Update

	getErr    error
	deleteErr error

	lastQuery string
	lastTags  []string
	lastLimit int
	page      tagging.Page

	lastLocale string
	tags       []string
	weights    []tagindex.Weight

	rebuilt    []string
	rebuildErr error
}

func (f *fakeTagging) Save(_ context.Context, _, _ string, u domdoc.Update) (*domdoc.Document, bool, error) {
	f.lastUpdate = u
	return f.saveDoc, f.saveCreate, f.saveErr
}

func (f *fakeTagging) Get(_ context.Context, _, id string) (*domdoc.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return flatDoc(id, "go, redis"), nil
}

func (f *fakeTagging) Delete(_ context.Context, _, _ string) error { return f.deleteErr }

func (f *fakeTagging) Count(_ context.Context, _ string) (int, error) { return 7, nil }

func (f *fakeTagging) TaggedWith(_ context.Context, _, t string, _, limit int) (tagging.Page, error) {
	f.lastQuery, f.lastTags, f.lastLimit = "with", []string{t}, limit
	return f.page, nil
}

func (f *fakeTagging) TaggedWithAll(_ context.Context, _ string, tags []string, _, limit int) (tagging.Page, error) {
	f.lastQuery, f.lastTags, f.lastLimit = "all", tags, limit
	return f.page, nil
}

func (f *fakeTagging) TaggedWithAny(_ context.Context, _ string, tags []string, _, limit int) (tagging.Page, error) {
	f.lastQuery, f.lastTags, f.lastLimit = "any", tags, limit
	return f.page, nil
}

func (f *fakeTagging) Tags(ctx context.Context, _, _ string) ([]string, error) {
	f.lastLocale, _ = locale.FromContext(ctx)
	return f.tags, nil
}

func (f *fakeTagging) TagsWithWeight(ctx context.Context, _, _ string) ([]tagindex.Weight, error) {
	f.lastLocale, _ = locale.FromContext(ctx)
	return f.weights, nil
}

func (f *fakeTagging) Rebuild(_ context.Context, collection string) (tagging.RebuildResult, error) {
	if f.rebuildErr != nil {
		return tagging.RebuildResult{}, f.rebuildErr
	}
	f.rebuilt = append(f.rebuilt, collection)
	return tagging.RebuildResult{
		Collection: collection, IndexName: collection + "_tags_index",
		Documents: 3, Entries: 2, Duration: 5 * time.Millisecond,
	}, nil
}

func (f *fakeTagging) RebuildAll(ctx context.Context) ([]tagging.RebuildResult, error) {
	res, err := f.Rebuild(ctx, "articles")
	return []tagging.RebuildResult{res}, err
}

type fakeHealth struct{ report healthuc.Report }

func (f fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type recordingReindexer struct{ requested []string }

func (r *recordingReindexer) RequestReindex(_ context.Context, collection string) error {
	r.requested = append(r.requested, collection)
	return nil
}

func flatDoc(id, raw string) *domdoc.Document {
	tags := tag.LoadFlat(",", tag.Parse(raw, ","))
	return domdoc.Reconstruct(id, map[string]string{"title": "T"}, tags)
}

func testRegistry(t *testing.T) *domcol.Registry {
	t.Helper()
	articles, err := domcol.New("articles", domcol.Options{})
	if err != nil {
		t.Fatal(err)
	}
	products, err := domcol.New("products", domcol.Options{
		Variant: tag.VariantLocalized, Locales: []string{"en", "pt-BR"},
	})
	if err != nil {
		t.Fatal(err)
	}
	reg, err := domcol.NewRegistry(articles, products)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

type collectionsAdapter struct{ reg *domcol.Registry }

func (c collectionsAdapter) Get(name string) (domcol.Config, error) { return c.reg.Get(name) }
func (c collectionsAdapter) List() []domcol.Config                  { return c.reg.All() }

func newTestServer(t *testing.T, tg *fakeTagging, opts Options) http.Handler {
	t.Helper()
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = "en"
	}
	health := fakeHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
	}}
	return NewServer(tg, collectionsAdapter{reg: testRegistry(t)}, health, opts, nil).Handler()
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

// --- tests ---

func TestSaveDocument_Created(t *testing.T) {
	tg := &fakeTagging{saveDoc: flatDoc("a1", "go, redis"), saveCreate: true}
	h := newTestServer(t, tg, Options{})

	rr := do(h, "PUT", "/collections/articles/documents/a1", `{"fields":{"title":"T"},"tags":"go, redis"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if got := rr.Header().Get("Location"); got != "/collections/articles/documents/a1" {
		t.Errorf("Location = %q", got)
	}
	if tg.lastUpdate.Tags == nil || *tg.lastUpdate.Tags != "go, redis" {
		t.Errorf("update tags = %v", tg.lastUpdate.Tags)
	}
	if tg.lastUpdate.Localized != nil {
		t.Error("flat request must not carry localized update")
	}

	resp := decode[DocumentResponse](t, rr)
	if resp.Tags == nil || *resp.Tags != "go,redis" {
		t.Errorf("tags = %v", resp.Tags)
	}
	if len(resp.TagList) != 2 || resp.TagList[0] != "go" {
		t.Errorf("tag_list = %v", resp.TagList)
	}
}

func TestSaveDocument_LocalizedUpdate(t *testing.T) {
	tags := tag.LoadLocalized(",", map[string]tag.Set{"en": {"red"}})
	tg := &fakeTagging{saveDoc: domdoc.Reconstruct("p1", nil, tags)}
	h := newTestServer(t, tg, Options{})

	rr := do(h, "PUT", "/collections/products/documents/p1", `{"localized_tags":{"en":"red"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if tg.lastUpdate.Localized == nil || tg.lastUpdate.Localized.ByLocale["en"] != "red" {
		t.Errorf("localized update = %+v", tg.lastUpdate.Localized)
	}
	resp := decode[DocumentResponse](t, rr)
	if resp.LocalizedTags["en"] != "red" {
		t.Errorf("localized_tags = %v", resp.LocalizedTags)
	}
}

func TestSaveDocument_ReindexFailureStillStored(t *testing.T) {
	tg := &fakeTagging{saveDoc: flatDoc("a1", "go"), saveErr: errors.New("broker down")}
	h := newTestServer(t, tg, Options{})

	rr := do(h, "PUT", "/collections/articles/documents/a1", `{"tags":"go"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Reindex-Status") != "failed" {
		t.Error("expected X-Reindex-Status header")
	}
}

func TestSaveDocument_BadBody(t *testing.T) {
	h := newTestServer(t, &fakeTagging{}, Options{})

	for _, body := range []string{`{`, `{"unknown":1}`} {
		rr := do(h, "PUT", "/collections/articles/documents/a1", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d", body, rr.Code)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code ErrorCode
	}{
		{"collection", domain.ErrCollectionNotFound, http.StatusNotFound, CodeCollectionNotFound},
		{"document", domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound},
		{"variant", domain.ErrVariantMismatch, http.StatusBadRequest, CodeVariantMismatch},
		{"invalid", domain.ErrInvalidDocument, http.StatusBadRequest, CodeValidationFailed},
		{"query", domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeTagging{saveErr: tt.err}, Options{})
			rr := do(h, "PUT", "/collections/articles/documents/a1", `{"tags":"x"}`)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			resp := decode[ErrorResponse](t, rr)
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
			if tt.code == CodeInternalError && strings.Contains(resp.Message, "connection") {
				t.Errorf("internal message leaked: %q", resp.Message)
			}
		})
	}
}

func TestGetAndDeleteDocument(t *testing.T) {
	tg := &fakeTagging{}
	h := newTestServer(t, tg, Options{})

	rr := do(h, "GET", "/collections/articles/documents/a1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if resp := decode[DocumentResponse](t, rr); resp.ID != "a1" || resp.Fields["title"] != "T" {
		t.Errorf("get = %+v", resp)
	}

	if rr := do(h, "DELETE", "/collections/articles/documents/a1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rr.Code)
	}

	tg.deleteErr = domain.ErrDocumentNotFound
	if rr := do(h, "DELETE", "/collections/articles/documents/a1", ""); rr.Code != http.StatusNotFound {
		t.Errorf("delete missing status = %d", rr.Code)
	}
}

func TestListDocuments_QuerySelection(t *testing.T) {
	tg := &fakeTagging{page: tagging.Page{
		Documents: []*domdoc.Document{flatDoc("a1", "go")}, Total: 1, Limit: 20,
	}}
	h := newTestServer(t, tg, Options{})

	tests := []struct {
		path  string
		query string
		tags  []string
	}{
		{"/collections/articles/documents?tagged_with=go", "with", []string{"go"}},
		{"/collections/articles/documents?tagged_with_all=go&tagged_with_all=redis", "all", []string{"go", "redis"}},
		{"/collections/articles/documents?tagged_with_any=go&limit=5", "any", []string{"go"}},
		{"/collections/articles/documents?tagged_with_all=", "all", []string{}},
	}
	for _, tt := range tests {
		rr := do(h, "GET", tt.path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.path, rr.Code)
		}
		if tg.lastQuery != tt.query || len(tg.lastTags) != len(tt.tags) {
			t.Errorf("%s: query %s %v", tt.path, tg.lastQuery, tg.lastTags)
		}
		resp := decode[DocumentListResponse](t, rr)
		if resp.Total != 1 || len(resp.Items) != 1 {
			t.Errorf("%s: resp = %+v", tt.path, resp)
		}
	}
	if tg.lastLimit != 0 {
		t.Errorf("limit forwarded = %d, want 0 (last query had none)", tg.lastLimit)
	}
}

func TestListDocuments_RequiresOneSelector(t *testing.T) {
	h := newTestServer(t, &fakeTagging{}, Options{})

	for _, path := range []string{
		"/collections/articles/documents",
		"/collections/articles/documents?tagged_with=a&tagged_with_any=b",
		"/collections/articles/documents?tagged_with=a&offset=-1",
	} {
		if rr := do(h, "GET", path, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", path, rr.Code)
		}
	}
}

func TestListTags_LocaleResolution(t *testing.T) {
	tg := &fakeTagging{tags: []string{"blue", "red"}}
	h := newTestServer(t, tg, Options{DefaultLocale: "en"})

	tests := []struct {
		path   string
		header string
		want   string
	}{
		{"/collections/products/tags", "", "en"},
		{"/collections/products/tags", "pt-BR,pt;q=0.9", "pt-BR"},
		{"/collections/products/tags?locale=fr", "pt-BR", "fr"},
		{"/collections/products/tags?locale=!!", "de;q=0.5, es", "es"},
	}
	for _, tt := range tests {
		var headers []string
		if tt.header != "" {
			headers = []string{"Accept-Language", tt.header}
		}
		rr := do(h, "GET", tt.path, "", headers...)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if tg.lastLocale != tt.want {
			t.Errorf("%s [%s]: locale = %q, want %q", tt.path, tt.header, tg.lastLocale, tt.want)
		}
	}

	resp := decode[TagListResponse](t, do(h, "GET", "/collections/articles/tags", ""))
	if len(resp.Tags) != 2 || resp.Tags[0] != "blue" {
		t.Errorf("tags = %v", resp.Tags)
	}
}

func TestListTags_EmptyIsArray(t *testing.T) {
	h := newTestServer(t, &fakeTagging{}, Options{})

	rr := do(h, "GET", "/collections/articles/tags", "")
	if !strings.Contains(rr.Body.String(), `"tags":[]`) {
		t.Errorf("body = %s", rr.Body)
	}
}

func TestListTagWeights(t *testing.T) {
	tg := &fakeTagging{weights: []tagindex.Weight{{Tag: "go", Count: 3}, {Tag: "redis", Count: 1}}}
	h := newTestServer(t, tg, Options{})

	resp := decode[TagWeightListResponse](t, do(h, "GET", "/collections/articles/tags/weights", ""))
	if len(resp.Tags) != 2 || resp.Tags[0].Tag != "go" || resp.Tags[0].Count != 3 {
		t.Errorf("weights = %+v", resp.Tags)
	}
}

func TestReindex_Sync(t *testing.T) {
	tg := &fakeTagging{}
	h := newTestServer(t, tg, Options{})

	rr := do(h, "POST", "/collections/articles/reindex", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[RebuildResponse](t, rr)
	if resp.IndexName != "articles_tags_index" || resp.DurationMs != 5 {
		t.Errorf("resp = %+v", resp)
	}

	tg.rebuildErr = errors.New("boom")
	if rr := do(h, "POST", "/reindex", ""); rr.Code != http.StatusInternalServerError {
		t.Errorf("rebuild all failure status = %d", rr.Code)
	}
}

func TestReindex_Async(t *testing.T) {
	tg := &fakeTagging{}
	queue := &recordingReindexer{}
	h := newTestServer(t, tg, Options{Reindexer: queue})

	if rr := do(h, "POST", "/collections/articles/reindex", ""); rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr := do(h, "POST", "/collections/missing/reindex", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown collection status = %d", rr.Code)
	}

	rr := do(h, "POST", "/reindex", "")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("all status = %d", rr.Code)
	}
	resp := decode[ReindexAcceptedResponse](t, rr)
	if len(resp.Queued) != 2 {
		t.Errorf("queued = %v", resp.Queued)
	}
	if len(tg.rebuilt) != 0 {
		t.Errorf("async mode rebuilt inline: %v", tg.rebuilt)
	}
	if len(queue.requested) != 3 {
		t.Errorf("requested = %v", queue.requested)
	}
}

func TestCollections(t *testing.T) {
	h := newTestServer(t, &fakeTagging{}, Options{})

	list := decode[[]CollectionResponse](t, do(h, "GET", "/collections", ""))
	if len(list) != 2 || list[0].Name != "articles" || list[1].Variant != "localized" {
		t.Errorf("list = %+v", list)
	}

	got := decode[CollectionResponse](t, do(h, "GET", "/collections/products", ""))
	if got.DocumentCount == nil || *got.DocumentCount != 7 || len(got.Locales) != 2 {
		t.Errorf("get = %+v", got)
	}

	if rr := do(h, "GET", "/collections/missing", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		srv := NewServer(&fakeTagging{}, collectionsAdapter{reg: testRegistry(t)},
			fakeHealth{report: healthuc.Report{Status: tt.status}}, Options{APIKeys: []string{"k"}}, nil)
		rr := do(srv.Handler(), "GET", "/health", "")
		if rr.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.status, rr.Code, tt.want)
		}
	}
}

func TestAuthAppliedToRoutes(t *testing.T) {
	h := newTestServer(t, &fakeTagging{}, Options{APIKeys: []string{"secret"}})

	if rr := do(h, "GET", "/collections", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", rr.Code)
	}
	if rr := do(h, "GET", "/collections", "", "Authorization", "Bearer secret"); rr.Code != http.StatusOK {
		t.Errorf("token status = %d", rr.Code)
	}
	if rr := do(h, "GET", "/metrics", ""); rr.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rr.Code)
	}
}
