// Package analyzer turns a released batch of raw payloads into enriched,
// stored articles.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/newsgrid/article-analyzer/internal/article"
	"github.com/newsgrid/article-analyzer/internal/log"
	"github.com/newsgrid/article-analyzer/internal/metrics"
)

// Classifier predicts category labels for a batch of texts.
type Classifier interface {
	PredictBatch(ctx context.Context, texts []string) ([][]string, error)
}

// Embedder encodes a batch of texts into dense vectors.
type Embedder interface {
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EntityRecognizer extracts named entities from a batch of texts.
type EntityRecognizer interface {
	RecognizeBatch(ctx context.Context, texts []string) ([][]string, error)
}

// Repository persists the category catalog and the enriched articles,
// reporting the ids of the documents that were stored.
type Repository interface {
	StoreCategories(ctx context.Context, categories []article.Category) ([]string, error)
	StoreArticles(ctx context.Context, articles []article.EnrichedArticle) ([]string, error)
}

// Analyzer runs the enrichment flow for one batch at a time.
type Analyzer struct {
	classifier Classifier
	embedder   Embedder
	recognizer EntityRecognizer // optional
	repo       Repository

	metrics *metrics.Metrics
	log     *log.Logger
}

// New wires the analysis stage. The recognizer may be nil, in which case
// articles are stored without entities.
func New(
	classifier Classifier,
	embedder Embedder,
	recognizer EntityRecognizer,
	repo Repository,
	m *metrics.Metrics,
	logger *log.Logger,
) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		embedder:   embedder,
		recognizer: recognizer,
		repo:       repo,
		metrics:    m,
		log:        logger,
	}
}

// Process enriches and stores one batch of raw payloads, returning the ids
// of the articles that were stored, in input order minus parser rejects and
// per document write failures. Malformed payloads are dropped from the
// batch; any collaborator failure returns an error and leaves the whole
// batch unacknowledged, so it is retried later.
func (a *Analyzer) Process(ctx context.Context, payloads [][]byte) ([]string, error) {
	articles := a.parseBatch(payloads)
	if len(articles) == 0 {
		return nil, nil
	}

	texts := make([]string, len(articles))
	for i := range articles {
		texts[i] = articles[i].AnalysisText()
	}

	labels, err := a.classifier.PredictBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("category prediction failed: %w", err)
	}
	vectors, err := a.embedder.EncodeBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	var entities [][]string
	if a.recognizer != nil {
		entities, err = a.recognizer.RecognizeBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("entity recognition failed: %w", err)
		}
	}

	// One analyze time for the whole batch, so re-running the batch keeps
	// its articles mutually consistent.
	analyzeTime := time.Now().UTC()

	enriched, catalog := buildEnriched(articles, labels, vectors, entities, analyzeTime)

	// Categories first: an article document must never reference a
	// catalog entry that does not exist yet.
	if _, err := a.repo.StoreCategories(ctx, catalog); err != nil {
		return nil, fmt.Errorf("failed to store categories: %w", err)
	}
	ids, err := a.repo.StoreArticles(ctx, enriched)
	if err != nil {
		return nil, fmt.Errorf("failed to store articles: %w", err)
	}

	a.log.Info("Analyzed and stored %d of %d articles with %d catalog categories", len(ids), len(enriched), len(catalog))
	return ids, nil
}

// parseBatch keeps the payloads that decode into a valid article. Rejects
// are logged and counted; they are acknowledged with the batch because a
// malformed payload never becomes valid on redelivery.
func (a *Analyzer) parseBatch(payloads [][]byte) []*article.ScrapedArticle {
	articles := make([]*article.ScrapedArticle, 0, len(payloads))
	for _, payload := range payloads {
		parsed, err := article.ParseScraped(payload)
		if err != nil {
			a.log.Warn("Discarding payload: %v", err)
			a.metrics.ParseRejects.Inc()
			continue
		}
		articles = append(articles, parsed)
	}
	return articles
}

// buildEnriched assembles the output records and the deduplicated category
// catalog of the batch, in first appearance order.
func buildEnriched(
	articles []*article.ScrapedArticle,
	labels [][]string,
	vectors [][]float32,
	entities [][]string,
	analyzeTime time.Time,
) ([]article.EnrichedArticle, []article.Category) {
	seen := make(map[string]bool)
	var catalog []article.Category

	// Names that normalize to nothing never enter the catalog.
	mint := func(raw string) (article.Category, bool) {
		cat := article.NewCategory(raw)
		if cat.Name == "" {
			return article.Category{}, false
		}
		if !seen[cat.ID] {
			seen[cat.ID] = true
			catalog = append(catalog, cat)
		}
		return cat, true
	}

	enriched := make([]article.EnrichedArticle, len(articles))
	for i, parsed := range articles {
		predicted := make([]article.Category, 0, len(labels[i]))
		predictedIDs := make(map[string]bool)
		for _, name := range labels[i] {
			cat, ok := mint(name)
			if !ok {
				continue
			}
			if !predictedIDs[cat.ID] {
				predictedIDs[cat.ID] = true
				predicted = append(predicted, cat)
			}
		}

		// Union of metadata and predicted categories, predicted last.
		union := make([]article.Category, 0, len(parsed.Categories)+len(predicted))
		unionIDs := make(map[string]bool)
		for _, name := range parsed.Categories {
			cat, ok := mint(name)
			if !ok {
				continue
			}
			if !unionIDs[cat.ID] {
				unionIDs[cat.ID] = true
				union = append(union, cat)
			}
		}
		for _, cat := range predicted {
			if !unionIDs[cat.ID] {
				unionIDs[cat.ID] = true
				union = append(union, cat)
			}
		}

		enriched[i] = article.EnrichedArticle{
			Article:            *parsed,
			AnalyzeTime:        analyzeTime,
			Categories:         union,
			AnalyzedCategories: predicted,
			Embeddings:         vectors[i],
		}
		if entities != nil {
			enriched[i].Entities = entities[i]
		}
	}

	return enriched, catalog
}
