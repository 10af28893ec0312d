package config

import (
	"flag"
	"time"
)

// Command line flags (have precedence over environment variables)
var (
	// Redis flags
	flagRedisHost            = flag.String("redis-host", "", "Redis host")
	flagRedisPort            = flag.Int("redis-port", 0, "Redis port")
	flagRedisStream          = flag.String("redis-stream", "", "Redis stream name")
	flagRedisGroup           = flag.String("redis-group", "", "Redis consumer group name")
	flagRedisReadCount       = flag.Int("redis-read-count", 0, "Entries fetched per XREADGROUP call")
	flagRedisBlockTimeout    = flag.Duration("redis-block-timeout", 0, "XREADGROUP block timeout")
	flagRedisClaimIdle       = flag.Duration("redis-claim-idle", 0, "Minimum idle time before a pending entry is reclaimed")
	flagRedisClaimInterval   = flag.Duration("redis-claim-interval", 0, "Interval between reclaim passes")
	flagRedisClaimMaxCount   = flag.Int("redis-claim-max-count", 0, "Maximum entries reclaimed per pass")
	flagRedisCleanupInterval = flag.Duration("redis-cleanup-interval", 0, "Interval between dead consumer cleanup passes")
	flagRedisConsumerIdle    = flag.Duration("redis-consumer-idle-timeout", 0, "Idle time before a consumer is considered dead")
	flagRedisPingTimeout     = flag.Duration("redis-ping-timeout", 0, "Redis ping timeout")

	// Batch flags
	flagMaxBatchSize          = flag.Int("max-batch-size", 0, "Batch release size")
	flagMaxBatchTimeoutMillis = flag.Int("max-batch-timeout-millis", 0, "Batch release timeout in milliseconds")

	// Model serving flags
	flagCatClfModelPath     = flag.String("cat-clf-model-path", "", "Category classifier serving endpoint")
	flagEmbeddingsModelPath = flag.String("embeddings-model-path", "", "Embeddings serving endpoint")
	flagNERModelPath        = flag.String("ner-model-path", "", "Entity recognizer serving endpoint (empty disables)")
	flagEmbeddingsDims      = flag.Int("embeddings-dims", 0, "Embedding vector dimension")
	flagInferenceTimeout    = flag.Duration("inference-timeout", 0, "Model serving request timeout")

	// Elasticsearch flags
	flagElasticHost            = flag.String("elastic-host", "", "Elasticsearch address")
	flagElasticUser            = flag.String("elastic-user", "", "Elasticsearch basic auth user")
	flagElasticPassword        = flag.String("elastic-password", "", "Elasticsearch basic auth password")
	flagElasticCAPath          = flag.String("elastic-ca-path", "", "Elasticsearch CA certificate path")
	flagElasticTLSInsecure     = flag.Bool("elastic-tls-insecure", false, "Skip Elasticsearch TLS verification")
	flagElasticArticlesIndex   = flag.String("elastic-articles-index", "", "Articles index name")
	flagElasticCategoriesIndex = flag.String("elastic-categories-index", "", "Categories index name")

	// Mongo flags
	flagMongoURI        = flag.String("mongo-uri", "", "Scraper repository MongoDB URI")
	flagMongoDatabase   = flag.String("mongo-database", "", "Scraper repository database")
	flagMongoCollection = flag.String("mongo-collection", "", "Scraper repository collection")

	// Pipeline flags
	flagConsumerMode    = flag.String("consumer-mode", "", "Consumer mode: articles or notifications")
	flagPayloadField    = flag.String("payload-field", "", "Stream entry payload field name")
	flagShutdownTimeout = flag.Duration("shutdown-timeout", 0, "Graceful shutdown timeout")

	// Metrics flags
	flagMetricsAddress = flag.String("metrics-address", "", "Prometheus listener address (empty disables)")
)

// applyRedisFlags applies command line flags to Redis configuration
func applyRedisFlags(cfg *RedisConfig) {
	applyRedisFlagStrings(cfg)
	applyRedisFlagInts(cfg)
	applyRedisFlagTimeouts(cfg)
}

func applyRedisFlagStrings(cfg *RedisConfig) {
	if *flagRedisHost != "" {
		cfg.Host = *flagRedisHost
	}
	if *flagRedisStream != "" {
		cfg.Stream = *flagRedisStream
	}
	if *flagRedisGroup != "" {
		cfg.Group = *flagRedisGroup
	}
}

func applyRedisFlagInts(cfg *RedisConfig) {
	if *flagRedisPort != 0 {
		cfg.Port = *flagRedisPort
	}
	if *flagRedisReadCount != 0 {
		cfg.ReadCount = *flagRedisReadCount
	}
	if *flagRedisClaimMaxCount != 0 {
		cfg.ClaimMaxCount = *flagRedisClaimMaxCount
	}
}

func applyRedisFlagTimeouts(cfg *RedisConfig) {
	if *flagRedisBlockTimeout != 0 {
		cfg.BlockTimeout = *flagRedisBlockTimeout
	}
	if *flagRedisClaimIdle != 0 {
		cfg.ClaimIdle = *flagRedisClaimIdle
	}
	if *flagRedisClaimInterval != 0 {
		cfg.ClaimInterval = *flagRedisClaimInterval
	}
	if *flagRedisCleanupInterval != 0 {
		cfg.CleanupInterval = *flagRedisCleanupInterval
	}
	if *flagRedisConsumerIdle != 0 {
		cfg.ConsumerIdleTimeout = *flagRedisConsumerIdle
	}
	if *flagRedisPingTimeout != 0 {
		cfg.PingTimeout = *flagRedisPingTimeout
	}
}

// applyBatchFlags applies command line flags to batch configuration
func applyBatchFlags(cfg *BatchConfig) {
	if *flagMaxBatchSize != 0 {
		cfg.MaxSize = *flagMaxBatchSize
	}
	if *flagMaxBatchTimeoutMillis != 0 {
		cfg.Timeout = time.Duration(*flagMaxBatchTimeoutMillis) * time.Millisecond
	}
}

// applyModelsFlags applies command line flags to model serving configuration
func applyModelsFlags(cfg *ModelsConfig) {
	if *flagCatClfModelPath != "" {
		cfg.ClassifierEndpoint = *flagCatClfModelPath
	}
	if *flagEmbeddingsModelPath != "" {
		cfg.EmbeddingsEndpoint = *flagEmbeddingsModelPath
	}
	if *flagNERModelPath != "" {
		cfg.NEREndpoint = *flagNERModelPath
	}
	if *flagEmbeddingsDims != 0 {
		cfg.EmbeddingsDims = *flagEmbeddingsDims
	}
	if *flagInferenceTimeout != 0 {
		cfg.RequestTimeout = *flagInferenceTimeout
	}
}

// applyElasticFlags applies command line flags to Elasticsearch configuration
func applyElasticFlags(cfg *ElasticConfig) {
	if *flagElasticHost != "" {
		cfg.Host = *flagElasticHost
	}
	if *flagElasticUser != "" {
		cfg.User = *flagElasticUser
	}
	if *flagElasticPassword != "" {
		cfg.Password = *flagElasticPassword
	}
	if *flagElasticCAPath != "" {
		cfg.CAPath = *flagElasticCAPath
	}
	if isFlagSet("elastic-tls-insecure") {
		cfg.TLSInsecure = *flagElasticTLSInsecure
	}
	if *flagElasticArticlesIndex != "" {
		cfg.ArticlesIndex = *flagElasticArticlesIndex
	}
	if *flagElasticCategoriesIndex != "" {
		cfg.CategoriesIndex = *flagElasticCategoriesIndex
	}
}

// applyMongoFlags applies command line flags to the scraper repository configuration
func applyMongoFlags(cfg *MongoConfig) {
	if *flagMongoURI != "" {
		cfg.URI = *flagMongoURI
	}
	if *flagMongoDatabase != "" {
		cfg.Database = *flagMongoDatabase
	}
	if *flagMongoCollection != "" {
		cfg.Collection = *flagMongoCollection
	}
}

// applyPipelineFlags applies command line flags to pipeline configuration
func applyPipelineFlags(cfg *PipelineConfig) {
	if *flagConsumerMode != "" {
		cfg.Mode = *flagConsumerMode
	}
	if *flagPayloadField != "" {
		cfg.PayloadField = *flagPayloadField
	}
	if *flagShutdownTimeout != 0 {
		cfg.ShutdownTimeout = *flagShutdownTimeout
	}
}

// applyMetricsFlags applies command line flags to metrics configuration
func applyMetricsFlags(cfg *MetricsConfig) {
	if *flagMetricsAddress != "" {
		cfg.Address = *flagMetricsAddress
	}
}

// isFlagSet checks if a flag was explicitly set on the command line
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
