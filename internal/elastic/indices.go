package elastic

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Articles index DDL. Category names carry a keyword subfield so they can
// be aggregated on; the topics section is written by the downstream topic
// modeling job, not by this pipeline.
const articlesMappingTemplate = `{
  "mappings": {
    "properties": {
      "analyze_time": {"type": "date"},
      "topics": {
        "properties": {
          "topic_ids": {"type": "keyword"},
          "topic_names": {"type": "text"}
        }
      },
      "analyzer": {
        "properties": {
          "categories": {
            "type": "text",
            "fields": {"keyword": {"type": "keyword", "ignore_above": 256}}
          },
          "category_ids": {"type": "keyword"},
          "analyzed_categories": {
            "type": "text",
            "fields": {"keyword": {"type": "keyword", "ignore_above": 256}}
          },
          "embeddings": {"type": "dense_vector", "dims": %d},
          "entities": {"type": "text"}
        }
      },
      "article": {
        "properties": {
          "id": {"type": "keyword"},
          "url": {"type": "keyword"},
          "source": {"type": "keyword"},
          "publish_date": {"type": "date"},
          "image": {"type": "keyword"},
          "author": {"type": "text"},
          "title": {"type": "text"},
          "paragraphs": {"type": "text"}
        }
      }
    }
  }
}`

const categoriesMapping = `{
  "mappings": {
    "properties": {
      "name": {"type": "keyword"}
    }
  }
}`

// EnsureIndices creates the articles and categories indices with their
// mappings. Existing indices are left untouched, so replicas can bootstrap
// concurrently.
func (w *Writer) EnsureIndices(ctx context.Context) error {
	articlesMapping := fmt.Sprintf(articlesMappingTemplate, w.dims)

	if err := w.createIndex(ctx, w.articlesIndex, articlesMapping); err != nil {
		return err
	}
	return w.createIndex(ctx, w.categoriesIndex, categoriesMapping)
}

func (w *Writer) createIndex(ctx context.Context, name, mapping string) error {
	res, err := w.client.Indices.Create(
		name,
		w.client.Indices.Create.WithBody(strings.NewReader(mapping)),
		w.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}
	defer func() { _ = res.Body.Close() }()

	if !res.IsError() {
		w.log.Info("Created index '%s'", name)
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	if strings.Contains(string(body), "resource_already_exists_exception") {
		w.log.Debug("Index '%s' already exists", name)
		return nil
	}
	return fmt.Errorf("failed to create index %s: %s", name, body)
}
