package elastic

import (
	"github.com/newsgrid/article-analyzer/internal/article"
	"github.com/newsgrid/article-analyzer/pkg/jsonfast"
)

// categoryDoc renders a catalog entry. The id lives in the document address,
// not in the body.
func categoryDoc(cat article.Category) []byte {
	b := jsonfast.New(64)
	b.BeginObject()
	b.AddStringField("name", cat.Name)
	b.EndObject()

	return copyBytes(b.Bytes())
}

// articleDoc renders one enriched article in the shape
// {analyze_time, analyzer:{...}, article:{...}}.
func articleDoc(enriched *article.EnrichedArticle) []byte {
	b := jsonfast.New(2048)
	b.BeginObject()
	b.AddTimeRFC3339Field("analyze_time", enriched.AnalyzeTime)
	b.AddRawJSONField("analyzer", analyzerSection(enriched))
	b.AddRawJSONField("article", articleSection(&enriched.Article))
	b.EndObject()

	return copyBytes(b.Bytes())
}

func analyzerSection(enriched *article.EnrichedArticle) []byte {
	names := make([]string, len(enriched.Categories))
	ids := make([]string, len(enriched.Categories))
	for i, cat := range enriched.Categories {
		names[i] = cat.Name
		ids[i] = cat.ID
	}
	analyzed := make([]string, len(enriched.AnalyzedCategories))
	for i, cat := range enriched.AnalyzedCategories {
		analyzed[i] = cat.Name
	}

	b := jsonfast.New(1024)
	b.BeginObject()
	b.AddStringArrayField("categories", names)
	b.AddStringArrayField("category_ids", ids)
	b.AddStringArrayField("analyzed_categories", analyzed)
	b.AddFloat32ArrayField("embeddings", enriched.Embeddings)
	if enriched.Entities != nil {
		b.AddStringArrayField("entities", enriched.Entities)
	}
	b.EndObject()

	return b.Bytes()
}

func articleSection(a *article.ScrapedArticle) []byte {
	b := jsonfast.New(1024)
	b.BeginObject()
	b.AddStringField("id", a.ID)
	b.AddStringField("url", a.URL)
	if a.Source != "" {
		b.AddStringField("source", a.Source)
	}
	if !a.PublishDate.IsZero() {
		b.AddTimeRFC3339Field("publish_date", a.PublishDate)
	}
	if a.Image != "" {
		b.AddStringField("image", a.Image)
	}
	b.AddStringArrayField("author", a.Authors)
	b.AddStringArrayField("title", a.Titles)
	b.AddStringArrayField("paragraphs", a.Paragraphs)
	b.EndObject()

	return b.Bytes()
}

func copyBytes(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	return out
}
