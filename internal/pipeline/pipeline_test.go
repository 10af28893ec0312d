package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/newsgrid/article-analyzer/internal/analyzer"
	"github.com/newsgrid/article-analyzer/internal/article"
	"github.com/newsgrid/article-analyzer/internal/config"
	"github.com/newsgrid/article-analyzer/internal/log"
	"github.com/newsgrid/article-analyzer/internal/metrics"
	"github.com/newsgrid/article-analyzer/internal/redis"
)

type stubClassifier struct{}

func (stubClassifier) PredictBatch(ctx context.Context, texts []string) ([][]string, error) {
	labels := make([][]string, len(texts))
	for i := range labels {
		labels[i] = []string{"politics"}
	}
	return labels, nil
}

type stubEmbedder struct{}

func (stubEmbedder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

type recordingRepo struct {
	articles []article.EnrichedArticle
}

func (r *recordingRepo) StoreCategories(ctx context.Context, categories []article.Category) ([]string, error) {
	ids := make([]string, len(categories))
	for i, cat := range categories {
		ids[i] = cat.ID
	}
	return ids, nil
}

func (r *recordingRepo) StoreArticles(ctx context.Context, articles []article.EnrichedArticle) ([]string, error) {
	r.articles = append(r.articles, articles...)
	ids := make([]string, len(articles))
	for i := range articles {
		ids[i] = articles[i].Article.ID
	}
	return ids, nil
}

type fakeSource struct {
	gotIDs []string
	docs   [][]byte
	err    error
}

func (f *fakeSource) ArticleBatch(ctx context.Context, ids []string) ([][]byte, error) {
	f.gotIDs = ids
	return f.docs, f.err
}

func testConfig(mode string) *config.Config {
	return &config.Config{
		Batch:    config.BatchConfig{MaxSize: 10, Timeout: time.Second},
		Pipeline: config.PipelineConfig{Mode: mode, PayloadField: "article"},
	}
}

func newTestAnalyzer(repo *recordingRepo) *analyzer.Analyzer {
	return analyzer.New(stubClassifier{}, stubEmbedder{}, nil, repo, metrics.New(), log.New())
}

func articleDoc(id string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"url": "https://news.example/%s",
		"components": {"article": [{"title": "Title"}, {"paragraphs": ["Body."]}, {"publish_date": "2024-03-05T10:15:42Z"}]}
	}`, id, id))
}

func TestNew_ArticleMode(t *testing.T) {
	p, err := New(testConfig(config.ModeArticles), nil, newTestAnalyzer(&recordingRepo{}), nil, metrics.New(), log.New())
	if err != nil {
		t.Fatalf("New() error = %v; want nil", err)
	}
	if p == nil {
		t.Fatal("New() returned nil pipeline")
	}
}

func TestNew_NotificationModeRequiresSource(t *testing.T) {
	_, err := New(testConfig(config.ModeNotifications), nil, newTestAnalyzer(&recordingRepo{}), nil, metrics.New(), log.New())
	if err == nil {
		t.Error("New() error = nil; want missing source error")
	}
}

func TestNew_UnknownMode(t *testing.T) {
	_, err := New(testConfig("streaming"), nil, newTestAnalyzer(&recordingRepo{}), nil, metrics.New(), log.New())
	if err == nil {
		t.Error("New() error = nil; want unknown mode error")
	}
}

func TestFlushNotifications(t *testing.T) {
	repo := &recordingRepo{}
	source := &fakeSource{docs: [][]byte{articleDoc("art-1"), articleDoc("art-2")}}

	p, err := New(testConfig(config.ModeNotifications), nil, newTestAnalyzer(repo), source, metrics.New(), log.New())
	if err != nil {
		t.Fatalf("New() error = %v; want nil", err)
	}

	payloads := [][]byte{
		[]byte(`[{"id":"art-1","url":"u1"},{"id":"art-2","url":"u2"}]`),
		[]byte(`not json`),
	}
	if err := p.flushNotifications(context.Background(), payloads); err != nil {
		t.Fatalf("flushNotifications() error = %v; want nil", err)
	}

	if len(source.gotIDs) != 2 || source.gotIDs[0] != "art-1" || source.gotIDs[1] != "art-2" {
		t.Errorf("resolved ids = %v; want [art-1 art-2]", source.gotIDs)
	}
	if len(repo.articles) != 2 {
		t.Errorf("stored articles = %d; want 2", len(repo.articles))
	}
}

func TestFlushNotifications_NoIDs(t *testing.T) {
	source := &fakeSource{}
	p, err := New(testConfig(config.ModeNotifications), nil, newTestAnalyzer(&recordingRepo{}), source, metrics.New(), log.New())
	if err != nil {
		t.Fatalf("New() error = %v; want nil", err)
	}

	if err := p.flushNotifications(context.Background(), [][]byte{[]byte(`[]`)}); err != nil {
		t.Fatalf("flushNotifications() error = %v; want nil", err)
	}
	if source.gotIDs != nil {
		t.Errorf("source called with %v; want no call", source.gotIDs)
	}
}

func TestFlushNotifications_SourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("mongo unavailable")}
	p, err := New(testConfig(config.ModeNotifications), nil, newTestAnalyzer(&recordingRepo{}), source, metrics.New(), log.New())
	if err != nil {
		t.Fatalf("New() error = %v; want nil", err)
	}

	payloads := [][]byte{[]byte(`[{"id":"art-1"}]`)}
	if err := p.flushNotifications(context.Background(), payloads); err == nil {
		t.Error("flushNotifications() error = nil; want source error")
	}
}

func TestHandleEntry_CanceledContext(t *testing.T) {
	p, err := New(testConfig(config.ModeArticles), nil, newTestAnalyzer(&recordingRepo{}), nil, metrics.New(), log.New())
	if err != nil {
		t.Fatalf("New() error = %v; want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No batcher loop is running, so only the context can end the call.
	entry := redis.Entry{ID: "1-1", Payload: []byte(`{}`)}
	if err := p.handleEntry(ctx, entry); !errors.Is(err, context.Canceled) {
		t.Errorf("handleEntry error = %v; want context.Canceled", err)
	}
}
