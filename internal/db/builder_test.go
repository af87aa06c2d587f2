package db

import (
	"strings"
	"testing"
)

func mustBuild(t *testing.T, b *IndexBuilder) *IndexDefinition {
	t.Helper()
	idx, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return idx
}

func TestIndexBuilder_JSONTag(t *testing.T) {
	idx := mustBuild(t, NewIndex("articles:idx").
		OnJSON().
		Prefix("tagdex:articles:").
		JSONTag("$.tags[*]", "tags"))

	if idx.Name != "articles:idx" {
		t.Errorf("name = %q, want articles:idx", idx.Name)
	}
	if idx.StorageType != StorageJSON {
		t.Errorf("storage = %q, want JSON", idx.StorageType)
	}
	f := idx.Fields[0]
	if f.Name != "$.tags[*]" || f.Alias != "tags" || f.Type != IndexFieldTag {
		t.Errorf("field = %+v, want $.tags[*] AS tags TAG", f)
	}
	if !f.TagCaseSensitive {
		t.Error("expected JSON tag fields to be case sensitive")
	}
}

func TestIndexBuilder_LocalizedFields(t *testing.T) {
	idx := mustBuild(t, NewIndex("products:idx").
		OnJSON().
		Prefix("a:", "b:").
		JSONTag("$.localized_tags['en'][*]", FieldAlias("tags.en")).
		JSONTag("$.localized_tags['pt-BR'][*]", FieldAlias("tags.pt-BR")))

	if len(idx.Prefixes) != 2 {
		t.Errorf("prefix count = %d, want 2", len(idx.Prefixes))
	}
	if len(idx.Fields) != 2 || idx.Fields[1].Alias != "tags_pt_BR" {
		t.Errorf("fields = %+v", idx.Fields)
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").JSONTag("$.x", "x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").JSONTag("$.x", "x").Build()
			},
			wantErr: "invalid characters",
		},
		{
			name: "duplicate alias",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").JSONTag("$.a[*]", "tags").JSONTag("$.b[*]", "tags").Build()
			},
			wantErr: "duplicate field name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := mustBuild(t, NewIndex("my-idx").
		OnJSON().
		Prefix("doc:").
		JSONTag("$.tags[*]", "tags"))

	s := idx.String()
	want := "FT.CREATE my-idx ON JSON PREFIX doc: SCHEMA $.tags[*] AS tags TAG CASESENSITIVE"
	if s != want {
		t.Errorf("String() = %q, want %q", s, want)
	}
}

func TestFieldAlias(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tags", "tags"},
		{"tags.en", "tags_en"},
		{"tags.pt-BR", "tags_pt_BR"},
		{"tags.zh-Hant-TW", "tags_zh_Hant_TW"},
	}
	for _, tt := range tests {
		if got := FieldAlias(tt.in); got != tt.want {
			t.Errorf("FieldAlias(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
