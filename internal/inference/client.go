// Package inference talks to the model serving endpoints used by the
// analysis stage. Each model receives the whole batch of texts in one call.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newsgrid/article-analyzer/pkg/jsonfast"
)

const maxErrorBody = 512

// client is the shared transport for the model endpoints.
type client struct {
	httpClient *http.Client
	endpoint   string
}

func newClient(endpoint string, timeout time.Duration) client {
	return client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
	}
}

// predict sends {"texts":[...]} to the endpoint and decodes the reply into
// out. The serving layer answers anything but 200 on model errors.
func (c client) predict(ctx context.Context, texts []string, out interface{}) error {
	builder := jsonfast.New(1024)
	builder.BeginObject()
	builder.AddStringArrayField("texts", texts)
	builder.EndObject()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(builder.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", c.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("endpoint %s answered %d: %s", c.endpoint, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed reply from %s: %w", c.endpoint, err)
	}
	return nil
}

// Classifier predicts category labels for a batch of texts.
type Classifier struct {
	client
}

// NewClassifier creates a classifier bound to a serving endpoint.
func NewClassifier(endpoint string, timeout time.Duration) *Classifier {
	return &Classifier{client: newClient(endpoint, timeout)}
}

// PredictBatch returns one label list per input text, in input order.
func (c *Classifier) PredictBatch(ctx context.Context, texts []string) ([][]string, error) {
	var reply struct {
		Labels [][]string `json:"labels"`
	}
	if err := c.predict(ctx, texts, &reply); err != nil {
		return nil, err
	}
	if len(reply.Labels) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d label lists for %d texts", len(reply.Labels), len(texts))
	}
	return reply.Labels, nil
}

// Embedder encodes a batch of texts into dense vectors.
type Embedder struct {
	client
	dims int
}

// NewEmbedder creates an embedder bound to a serving endpoint. Vectors not
// matching dims are rejected, since the index mapping is fixed at dims.
func NewEmbedder(endpoint string, dims int, timeout time.Duration) *Embedder {
	return &Embedder{client: newClient(endpoint, timeout), dims: dims}
}

// EncodeBatch returns one vector per input text, in input order.
func (e *Embedder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var reply struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.predict(ctx, texts, &reply); err != nil {
		return nil, err
	}
	if len(reply.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(reply.Embeddings), len(texts))
	}
	for i, vec := range reply.Embeddings {
		if len(vec) != e.dims {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(vec), e.dims)
		}
	}
	return reply.Embeddings, nil
}

// EntityRecognizer extracts named entities from a batch of texts.
type EntityRecognizer struct {
	client
}

// NewEntityRecognizer creates a recognizer bound to a serving endpoint.
func NewEntityRecognizer(endpoint string, timeout time.Duration) *EntityRecognizer {
	return &EntityRecognizer{client: newClient(endpoint, timeout)}
}

// RecognizeBatch returns one entity list per input text, in input order.
func (r *EntityRecognizer) RecognizeBatch(ctx context.Context, texts []string) ([][]string, error) {
	var reply struct {
		Entities [][]string `json:"entities"`
	}
	if err := r.predict(ctx, texts, &reply); err != nil {
		return nil, err
	}
	if len(reply.Entities) != len(texts) {
		return nil, fmt.Errorf("recognizer returned %d entity lists for %d texts", len(reply.Entities), len(texts))
	}
	return reply.Entities, nil
}
