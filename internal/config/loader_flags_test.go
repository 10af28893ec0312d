package config

import (
	"flag"
	"os"
	"testing"
	"time"
)

func TestApplyRedisFlags(t *testing.T) {
	// Save original command line args
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	// Set command line args
	os.Args = []string{
		"test",
		"-redis-host=flag-redis",
		"-redis-port=6380",
		"-redis-stream=flag-stream",
		"-redis-group=flag-group",
		"-redis-read-count=15",
		"-redis-block-timeout=8s",
	}

	// Reset flags and parse
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	resetFlags()
	flag.Parse()

	// Start with defaults
	cfg := defaultRedisConfig()

	// Apply flags
	applyRedisFlags(&cfg)

	// Verify
	if cfg.Host != "flag-redis" {
		t.Errorf("Host = %s; want flag-redis", cfg.Host)
	}
	if cfg.Port != 6380 {
		t.Errorf("Port = %d; want 6380", cfg.Port)
	}
	if cfg.Stream != "flag-stream" {
		t.Errorf("Stream = %s; want flag-stream", cfg.Stream)
	}
	if cfg.Group != "flag-group" {
		t.Errorf("Group = %s; want flag-group", cfg.Group)
	}
	if cfg.ReadCount != 15 {
		t.Errorf("ReadCount = %d; want 15", cfg.ReadCount)
	}
	if cfg.BlockTimeout != 8*time.Second {
		t.Errorf("BlockTimeout = %v; want 8s", cfg.BlockTimeout)
	}
}

func TestApplyBatchFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{
		"test",
		"-max-batch-size=50",
		"-max-batch-timeout-millis=1500",
	}

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	resetFlags()
	flag.Parse()

	cfg := defaultBatchConfig()
	applyBatchFlags(&cfg)

	if cfg.MaxSize != 50 {
		t.Errorf("MaxSize = %d; want 50", cfg.MaxSize)
	}
	if cfg.Timeout != 1500*time.Millisecond {
		t.Errorf("Timeout = %v; want 1.5s", cfg.Timeout)
	}
}

func TestApplyElasticFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{
		"test",
		"-elastic-host=https://es-flag:9200",
		"-elastic-user=flag-user",
		"-elastic-tls-insecure=true",
	}

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	resetFlags()
	flag.Parse()

	cfg := defaultElasticConfig()
	applyElasticFlags(&cfg)

	if cfg.Host != "https://es-flag:9200" {
		t.Errorf("Host = %s; want https://es-flag:9200", cfg.Host)
	}
	if cfg.User != "flag-user" {
		t.Errorf("User = %s; want flag-user", cfg.User)
	}
	if !cfg.TLSInsecure {
		t.Error("TLSInsecure = false; want true")
	}
}

func TestApplyPipelineFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{
		"test",
		"-consumer-mode=notifications",
		"-payload-field=done",
		"-shutdown-timeout=15s",
	}

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	resetFlags()
	flag.Parse()

	cfg := defaultPipelineConfig()
	applyPipelineFlags(&cfg)

	if cfg.Mode != ModeNotifications {
		t.Errorf("Mode = %s; want %s", cfg.Mode, ModeNotifications)
	}
	if cfg.PayloadField != "done" {
		t.Errorf("PayloadField = %s; want done", cfg.PayloadField)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %v; want 15s", cfg.ShutdownTimeout)
	}
}

func TestIsFlagSet(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"test", "-elastic-tls-insecure=false"}

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	resetFlags()
	flag.Parse()

	if !isFlagSet("elastic-tls-insecure") {
		t.Error("isFlagSet(elastic-tls-insecure) = false; want true")
	}
	if isFlagSet("redis-host") {
		t.Error("isFlagSet(redis-host) = true; want false")
	}
}

// resetFlags re-registers all flags on the fresh flag.CommandLine.
func resetFlags() {
	// Redis flags
	flagRedisHost = flag.String("redis-host", "", "Redis host")
	flagRedisPort = flag.Int("redis-port", 0, "Redis port")
	flagRedisStream = flag.String("redis-stream", "", "Redis stream name")
	flagRedisGroup = flag.String("redis-group", "", "Redis consumer group name")
	flagRedisReadCount = flag.Int("redis-read-count", 0, "Entries fetched per XREADGROUP call")
	flagRedisBlockTimeout = flag.Duration("redis-block-timeout", 0, "XREADGROUP block timeout")
	flagRedisClaimIdle = flag.Duration("redis-claim-idle", 0, "Minimum idle time before a pending entry is reclaimed")
	flagRedisClaimInterval = flag.Duration("redis-claim-interval", 0, "Interval between reclaim passes")
	flagRedisClaimMaxCount = flag.Int("redis-claim-max-count", 0, "Maximum entries reclaimed per pass")
	flagRedisCleanupInterval = flag.Duration("redis-cleanup-interval", 0, "Interval between dead consumer cleanup passes")
	flagRedisConsumerIdle = flag.Duration("redis-consumer-idle-timeout", 0, "Idle time before a consumer is considered dead")
	flagRedisPingTimeout = flag.Duration("redis-ping-timeout", 0, "Redis ping timeout")

	// Batch flags
	flagMaxBatchSize = flag.Int("max-batch-size", 0, "Batch release size")
	flagMaxBatchTimeoutMillis = flag.Int("max-batch-timeout-millis", 0, "Batch release timeout in milliseconds")

	// Model serving flags
	flagCatClfModelPath = flag.String("cat-clf-model-path", "", "Category classifier serving endpoint")
	flagEmbeddingsModelPath = flag.String("embeddings-model-path", "", "Embeddings serving endpoint")
	flagNERModelPath = flag.String("ner-model-path", "", "Entity recognizer serving endpoint (empty disables)")
	flagEmbeddingsDims = flag.Int("embeddings-dims", 0, "Embedding vector dimension")
	flagInferenceTimeout = flag.Duration("inference-timeout", 0, "Model serving request timeout")

	// Elasticsearch flags
	flagElasticHost = flag.String("elastic-host", "", "Elasticsearch address")
	flagElasticUser = flag.String("elastic-user", "", "Elasticsearch basic auth user")
	flagElasticPassword = flag.String("elastic-password", "", "Elasticsearch basic auth password")
	flagElasticCAPath = flag.String("elastic-ca-path", "", "Elasticsearch CA certificate path")
	flagElasticTLSInsecure = flag.Bool("elastic-tls-insecure", false, "Skip Elasticsearch TLS verification")
	flagElasticArticlesIndex = flag.String("elastic-articles-index", "", "Articles index name")
	flagElasticCategoriesIndex = flag.String("elastic-categories-index", "", "Categories index name")

	// Mongo flags
	flagMongoURI = flag.String("mongo-uri", "", "Scraper repository MongoDB URI")
	flagMongoDatabase = flag.String("mongo-database", "", "Scraper repository database")
	flagMongoCollection = flag.String("mongo-collection", "", "Scraper repository collection")

	// Pipeline flags
	flagConsumerMode = flag.String("consumer-mode", "", "Consumer mode: articles or notifications")
	flagPayloadField = flag.String("payload-field", "", "Stream entry payload field name")
	flagShutdownTimeout = flag.Duration("shutdown-timeout", 0, "Graceful shutdown timeout")

	// Metrics flags
	flagMetricsAddress = flag.String("metrics-address", "", "Prometheus listener address (empty disables)")
}
