package analyzer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsgrid/article-analyzer/internal/article"
	"github.com/newsgrid/article-analyzer/internal/log"
	"github.com/newsgrid/article-analyzer/internal/metrics"
)

type fakeClassifier struct {
	labels   [][]string
	err      error
	gotTexts []string
}

func (f *fakeClassifier) PredictBatch(ctx context.Context, texts []string) ([][]string, error) {
	f.gotTexts = texts
	return f.labels, f.err
}

type fakeEmbedder struct {
	vectors  [][]float32
	err      error
	gotTexts []string
}

func (f *fakeEmbedder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.gotTexts = texts
	return f.vectors, f.err
}

type fakeRecognizer struct {
	entities [][]string
	err      error
}

func (f *fakeRecognizer) RecognizeBatch(ctx context.Context, texts []string) ([][]string, error) {
	return f.entities, f.err
}

type fakeRepository struct {
	calls         []string
	categories    []article.Category
	articles      []article.EnrichedArticle
	categoriesErr error
	articlesErr   error
}

func (f *fakeRepository) StoreCategories(ctx context.Context, categories []article.Category) ([]string, error) {
	f.calls = append(f.calls, "categories")
	f.categories = categories
	if f.categoriesErr != nil {
		return nil, f.categoriesErr
	}
	ids := make([]string, len(categories))
	for i, cat := range categories {
		ids[i] = cat.ID
	}
	return ids, nil
}

func (f *fakeRepository) StoreArticles(ctx context.Context, articles []article.EnrichedArticle) ([]string, error) {
	f.calls = append(f.calls, "articles")
	f.articles = articles
	if f.articlesErr != nil {
		return nil, f.articlesErr
	}
	ids := make([]string, len(articles))
	for i := range articles {
		ids[i] = articles[i].Article.ID
	}
	return ids, nil
}

func payloadWithCategories(id string, categories string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"url": "https://news.example/%s",
		"metadata": {"source": "example", "categories": %s},
		"components": {"article": [
			{"title": "Title %s"},
			{"paragraphs": ["Body of %s."]},
			{"publish_date": "2024-03-05T10:15:42Z"}
		]}
	}`, id, id, categories, id, id))
}

func vec(dims int, fill float32) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestProcess_HappyPath(t *testing.T) {
	clf := &fakeClassifier{labels: [][]string{{"politics"}, {"sports", "politics"}}}
	emb := &fakeEmbedder{vectors: [][]float32{vec(3, 0.1), vec(3, 0.2)}}
	repo := &fakeRepository{}
	a := New(clf, emb, nil, repo, metrics.New(), log.New())

	payloads := [][]byte{
		payloadWithCategories("art-1", `["World"]`),
		payloadWithCategories("art-2", `[]`),
	}
	ids, err := a.Process(context.Background(), payloads)
	require.NoError(t, err)

	// The stored ids come back in input order.
	assert.Equal(t, []string{"art-1", "art-2"}, ids)

	// Categories are stored before articles.
	require.Equal(t, []string{"categories", "articles"}, repo.calls)
	require.Len(t, repo.articles, 2)

	// One analyze time for the whole batch.
	assert.Equal(t, repo.articles[0].AnalyzeTime, repo.articles[1].AnalyzeTime)
	assert.False(t, repo.articles[0].AnalyzeTime.IsZero())

	// The model input is the article text, in payload order.
	require.Len(t, clf.gotTexts, 2)
	assert.Equal(t, "Title art-1Body of art-1.", clf.gotTexts[0])
	assert.Equal(t, clf.gotTexts, emb.gotTexts)

	// First article: metadata world plus predicted politics.
	first := repo.articles[0]
	require.Len(t, first.Categories, 2)
	assert.Equal(t, "world", first.Categories[0].Name)
	assert.Equal(t, "politics", first.Categories[1].Name)
	require.Len(t, first.AnalyzedCategories, 1)
	assert.Equal(t, "politics", first.AnalyzedCategories[0].Name)
	assert.Equal(t, vec(3, 0.1), first.Embeddings)

	// The catalog holds each category once, across the whole batch.
	require.Len(t, repo.categories, 3)
	names := []string{repo.categories[0].Name, repo.categories[1].Name, repo.categories[2].Name}
	assert.Equal(t, []string{"world", "politics", "sports"}, names)
}

func TestProcess_AnalyzedSubsetOfCategories(t *testing.T) {
	clf := &fakeClassifier{labels: [][]string{{"politics", "economy"}}}
	emb := &fakeEmbedder{vectors: [][]float32{vec(3, 0.1)}}
	repo := &fakeRepository{}
	a := New(clf, emb, nil, repo, metrics.New(), log.New())

	payloads := [][]byte{payloadWithCategories("art-1", `["Politics"]`)}
	_, err := a.Process(context.Background(), payloads)
	require.NoError(t, err)

	require.Len(t, repo.articles, 1)
	got := repo.articles[0]

	union := make(map[string]bool)
	for _, cat := range got.Categories {
		union[cat.ID] = true
	}
	for _, cat := range got.AnalyzedCategories {
		assert.True(t, union[cat.ID], "analyzed category %s missing from the union", cat.Name)
	}

	// Metadata "Politics" and predicted "politics" collapse to one entry.
	assert.Len(t, got.Categories, 2)
	assert.Len(t, got.AnalyzedCategories, 2)
	assert.Len(t, repo.categories, 2)
}

func TestProcess_EmptyCategoryNamesDropped(t *testing.T) {
	clf := &fakeClassifier{labels: [][]string{{""}}}
	emb := &fakeEmbedder{vectors: [][]float32{vec(3, 0.1)}}
	repo := &fakeRepository{}
	a := New(clf, emb, nil, repo, metrics.New(), log.New())

	// Whitespace-only metadata names and empty predicted labels normalize
	// to nothing and never mint a catalog entry.
	payloads := [][]byte{payloadWithCategories("art-1", `["   ", "World"]`)}
	_, err := a.Process(context.Background(), payloads)
	require.NoError(t, err)

	require.Len(t, repo.categories, 1)
	assert.Equal(t, "world", repo.categories[0].Name)

	require.Len(t, repo.articles, 1)
	got := repo.articles[0]
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "world", got.Categories[0].Name)
	assert.Empty(t, got.AnalyzedCategories)
}

func TestProcess_EntitiesWhenRecognizerPresent(t *testing.T) {
	clf := &fakeClassifier{labels: [][]string{{}}}
	emb := &fakeEmbedder{vectors: [][]float32{vec(3, 0.1)}}
	rec := &fakeRecognizer{entities: [][]string{{"Berlin", "EU"}}}
	repo := &fakeRepository{}
	a := New(clf, emb, rec, repo, metrics.New(), log.New())

	_, err := a.Process(context.Background(), [][]byte{payloadWithCategories("art-1", `[]`)})
	require.NoError(t, err)

	require.Len(t, repo.articles, 1)
	assert.Equal(t, []string{"Berlin", "EU"}, repo.articles[0].Entities)
}

func TestProcess_MalformedPayloadsDropped(t *testing.T) {
	clf := &fakeClassifier{labels: [][]string{{}}}
	emb := &fakeEmbedder{vectors: [][]float32{vec(3, 0.1)}}
	repo := &fakeRepository{}
	a := New(clf, emb, nil, repo, metrics.New(), log.New())

	payloads := [][]byte{
		[]byte(`not json at all`),
		payloadWithCategories("art-1", `[]`),
	}
	ids, err := a.Process(context.Background(), payloads)
	require.NoError(t, err)

	// Only the surviving payload reaches the models and the store.
	assert.Equal(t, []string{"art-1"}, ids)
	require.Len(t, clf.gotTexts, 1)
	require.Len(t, repo.articles, 1)
	assert.Equal(t, "art-1", repo.articles[0].Article.ID)
}

func TestProcess_AllMalformed(t *testing.T) {
	clf := &fakeClassifier{}
	emb := &fakeEmbedder{}
	repo := &fakeRepository{}
	a := New(clf, emb, nil, repo, metrics.New(), log.New())

	payloads := [][]byte{[]byte(`{`), []byte(`{"id":"x"}`)}
	ids, err := a.Process(context.Background(), payloads)
	require.NoError(t, err)

	// Nothing to analyze, nothing stored, no model calls, no ids.
	assert.Empty(t, ids)
	assert.Nil(t, clf.gotTexts)
	assert.Nil(t, emb.gotTexts)
	assert.Empty(t, repo.calls)
}

func TestProcess_CollaboratorErrors(t *testing.T) {
	valid := [][]byte{payloadWithCategories("art-1", `[]`)}

	tests := []struct {
		name  string
		setup func(*fakeClassifier, *fakeEmbedder, *fakeRecognizer, *fakeRepository)
	}{
		{"classifier failure", func(c *fakeClassifier, e *fakeEmbedder, r *fakeRecognizer, repo *fakeRepository) {
			c.err = errors.New("serving down")
		}},
		{"embedder failure", func(c *fakeClassifier, e *fakeEmbedder, r *fakeRecognizer, repo *fakeRepository) {
			e.err = errors.New("serving down")
		}},
		{"recognizer failure", func(c *fakeClassifier, e *fakeEmbedder, r *fakeRecognizer, repo *fakeRepository) {
			r.err = errors.New("serving down")
		}},
		{"category store failure", func(c *fakeClassifier, e *fakeEmbedder, r *fakeRecognizer, repo *fakeRepository) {
			repo.categoriesErr = errors.New("index unavailable")
		}},
		{"article store failure", func(c *fakeClassifier, e *fakeEmbedder, r *fakeRecognizer, repo *fakeRepository) {
			repo.articlesErr = errors.New("index unavailable")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clf := &fakeClassifier{labels: [][]string{{}}}
			emb := &fakeEmbedder{vectors: [][]float32{vec(3, 0.1)}}
			rec := &fakeRecognizer{entities: [][]string{{}}}
			repo := &fakeRepository{}
			tt.setup(clf, emb, rec, repo)

			a := New(clf, emb, rec, repo, metrics.New(), log.New())
			_, err := a.Process(context.Background(), valid)
			require.Error(t, err)

			// A failed batch must never reach the article store.
			if tt.name != "article store failure" && tt.name != "category store failure" {
				assert.Empty(t, repo.calls)
			}
			if tt.name == "category store failure" {
				assert.Equal(t, []string{"categories"}, repo.calls)
			}
		})
	}
}
