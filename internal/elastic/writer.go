// Package elastic persists the category catalog and the enriched articles
// through bulk writes.
package elastic

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/newsgrid/article-analyzer/internal/article"
	"github.com/newsgrid/article-analyzer/internal/config"
	"github.com/newsgrid/article-analyzer/internal/log"
	"github.com/newsgrid/article-analyzer/internal/metrics"
)

// Writer owns the Elasticsearch client and the two target indices.
type Writer struct {
	client          *elasticsearch.Client
	articlesIndex   string
	categoriesIndex string
	dims            int

	metrics *metrics.Metrics
	log     *log.Logger
}

// NewWriter builds the client from the configured host, credentials and TLS
// settings. dims fixes the dense vector mapping of the articles index.
func NewWriter(cfg *config.ElasticConfig, dims int, m *metrics.Metrics, logger *log.Logger) (*Writer, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.Host},
		Username:  cfg.User,
		Password:  cfg.Password,
	}

	if cfg.TLSInsecure {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 - explicit opt-in for self-signed dev clusters
		}
	} else if cfg.CAPath != "" {
		ca, err := os.ReadFile(cfg.CAPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate %s: %w", cfg.CAPath, err)
		}
		esCfg.CACert = ca
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &Writer{
		client:          client,
		articlesIndex:   cfg.ArticlesIndex,
		categoriesIndex: cfg.CategoriesIndex,
		dims:            dims,
		metrics:         m,
		log:             logger,
	}, nil
}

// StoreCategories upserts the catalog entries, addressed by their id, and
// returns the ids of the entries that were stored. The same category may
// arrive in every batch; rewriting it is idempotent.
func (w *Writer) StoreCategories(ctx context.Context, categories []article.Category) ([]string, error) {
	if len(categories) == 0 {
		return nil, nil
	}

	docs := make([]bulkDoc, len(categories))
	for i, cat := range categories {
		docs[i] = bulkDoc{id: cat.ID, body: categoryDoc(cat)}
	}
	return w.bulkIndex(ctx, w.categoriesIndex, docs)
}

// StoreArticles writes the enriched documents, addressed by the article id,
// so redelivered entries overwrite instead of duplicating. It returns the
// ids of the documents that were stored, in input order.
func (w *Writer) StoreArticles(ctx context.Context, articles []article.EnrichedArticle) ([]string, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	docs := make([]bulkDoc, len(articles))
	for i := range articles {
		docs[i] = bulkDoc{id: articles[i].Article.ID, body: articleDoc(&articles[i])}
	}
	return w.bulkIndex(ctx, w.articlesIndex, docs)
}

type bulkDoc struct {
	id   string
	body []byte
}

// bulkIndex streams the documents through a single worker bulk indexer and
// returns the ids of the documents that made it, in input order. Per
// document failures are logged and dropped; transport level failures abort
// the call so the batch stays unacknowledged.
func (w *Writer) bulkIndex(ctx context.Context, index string, docs []bulkDoc) ([]string, error) {
	indexer, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     w.client,
		Index:      index,
		NumWorkers: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var mu sync.Mutex
	var fatal error
	stored := make(map[string]bool, len(docs))

	for _, doc := range docs {
		item := esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.id,
			Body:       bytes.NewReader(doc.body),
			OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
				mu.Lock()
				stored[item.DocumentID] = true
				mu.Unlock()
				w.metrics.DocsIndexed.Inc()
			},
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					mu.Lock()
					if fatal == nil {
						fatal = err
					}
					mu.Unlock()
					return
				}
				w.metrics.IndexFailures.Inc()
				w.log.Warn("Dropping document %s from index %s: %s: %s",
					item.DocumentID, index, res.Error.Type, res.Error.Reason)
			},
		}
		if err := indexer.Add(ctx, item); err != nil {
			_ = indexer.Close(ctx)
			return nil, fmt.Errorf("failed to enqueue document %s: %w", doc.id, err)
		}
	}

	if err := indexer.Close(ctx); err != nil {
		return nil, fmt.Errorf("bulk write to %s failed: %w", index, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if fatal != nil {
		return nil, fmt.Errorf("bulk write to %s failed: %w", index, fatal)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if stored[doc.id] {
			ids = append(ids, doc.id)
		}
	}
	return ids, nil
}
