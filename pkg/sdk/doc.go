// Package tagdex is an embeddable client for tagdex. It talks straight to the
// store (Valkey, Redis or Postgres) and runs the tag engine in-process.
//
// Documents carry a free-text tag list; every collection with its index
// enabled keeps a tag frequency index that is rebuilt whenever a write
// changes a document's tags.
//
//	client, _ := tagdex.New(ctx,
//	    tagdex.WithValkey("localhost:6379", ""),
//	    tagdex.WithCollection("articles"),
//	    tagdex.WithCollection("products", tagdex.Localized("en", "pt-BR")),
//	)
//	defer client.Close()
//
//	docs := client.Documents("articles")
//	_, _ = docs.Save(ctx, tagdex.Document{ID: "a1", Tags: tagdex.TagList("go, redis")})
//	page, _ := docs.TaggedWithAll(ctx, []string{"go", "redis"}, 0, 20)
//	weights, _ := client.Index("articles").Weights(ctx, "")
//
// Localized collections resolve the locale from the context:
//
//	ctx = tagdex.WithLocale(ctx, "pt-BR")
//	tags, _ := client.Index("products").Tags(ctx, "")
package tagdex
