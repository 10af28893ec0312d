package config

import (
	"os"
	"strconv"
	"time"
)

// loadRedisFromEnv loads Redis configuration from environment variables
func loadRedisFromEnv(cfg *RedisConfig) {
	loadRedisStrings(cfg)
	loadRedisInts(cfg)
	loadRedisTimeouts(cfg)
}

func loadRedisStrings(cfg *RedisConfig) {
	if v := getEnvString("REDIS_HOST"); v != "" {
		cfg.Host = v
	}
	if v := getEnvString("REDIS_STREAM_NAME"); v != "" {
		cfg.Stream = v
	}
	if v := getEnvString("REDIS_CONSUMER_GROUP"); v != "" {
		cfg.Group = v
	}
}

func loadRedisInts(cfg *RedisConfig) {
	if v := getEnvInt("REDIS_PORT"); v != 0 {
		cfg.Port = v
	}
	if v := getEnvInt("REDIS_READ_COUNT"); v != 0 {
		cfg.ReadCount = v
	}
	if v := getEnvInt("REDIS_CLAIM_MAX_COUNT"); v != 0 {
		cfg.ClaimMaxCount = v
	}
}

func loadRedisTimeouts(cfg *RedisConfig) {
	if v := getEnvDuration("REDIS_BLOCK_TIMEOUT"); v != 0 {
		cfg.BlockTimeout = v
	}
	if v := getEnvDuration("REDIS_CLAIM_IDLE"); v != 0 {
		cfg.ClaimIdle = v
	}
	if v := getEnvDuration("REDIS_CLAIM_INTERVAL"); v != 0 {
		cfg.ClaimInterval = v
	}
	if v := getEnvDuration("REDIS_CLEANUP_INTERVAL"); v != 0 {
		cfg.CleanupInterval = v
	}
	if v := getEnvDuration("REDIS_CONSUMER_IDLE_TIMEOUT"); v != 0 {
		cfg.ConsumerIdleTimeout = v
	}
	if v := getEnvDuration("REDIS_PING_TIMEOUT"); v != 0 {
		cfg.PingTimeout = v
	}
}

// loadBatchFromEnv loads batch thresholds from environment variables
func loadBatchFromEnv(cfg *BatchConfig) {
	if v := getEnvInt("MAX_BATCH_SIZE"); v != 0 {
		cfg.MaxSize = v
	}
	if v := getEnvInt("MAX_BATCH_TIMEOUT_MILLIS"); v != 0 {
		cfg.Timeout = time.Duration(v) * time.Millisecond
	}
}

// loadModelsFromEnv loads model serving configuration from environment variables
func loadModelsFromEnv(cfg *ModelsConfig) {
	if v := getEnvString("CAT_CLF_MODEL_PATH"); v != "" {
		cfg.ClassifierEndpoint = v
	}
	if v := getEnvString("EMBEDDINGS_MODEL_PATH"); v != "" {
		cfg.EmbeddingsEndpoint = v
	}
	if v := getEnvString("NER_MODEL_PATH"); v != "" {
		cfg.NEREndpoint = v
	}
	if v := getEnvInt("EMBEDDINGS_DIMS"); v != 0 {
		cfg.EmbeddingsDims = v
	}
	if v := getEnvDuration("INFERENCE_TIMEOUT"); v != 0 {
		cfg.RequestTimeout = v
	}
}

// loadElasticFromEnv loads Elasticsearch configuration from environment variables
func loadElasticFromEnv(cfg *ElasticConfig) {
	if v := getEnvString("ELASTIC_HOST"); v != "" {
		cfg.Host = v
	}
	if v := getEnvString("ELASTIC_USER"); v != "" {
		cfg.User = v
	}
	if v := getEnvString("ELASTIC_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := getEnvString("ELASTIC_CA_PATH"); v != "" {
		cfg.CAPath = v
	}
	if v := getEnvBool("ELASTIC_TLS_INSECURE"); v {
		cfg.TLSInsecure = v
	}
	if v := getEnvString("ELASTIC_ARTICLES_INDEX"); v != "" {
		cfg.ArticlesIndex = v
	}
	if v := getEnvString("ELASTIC_CATEGORIES_INDEX"); v != "" {
		cfg.CategoriesIndex = v
	}
}

// loadMongoFromEnv loads the scraper repository configuration from environment variables
func loadMongoFromEnv(cfg *MongoConfig) {
	if v := getEnvString("MONGO_URI"); v != "" {
		cfg.URI = v
	}
	if v := getEnvString("MONGO_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := getEnvString("MONGO_COLLECTION"); v != "" {
		cfg.Collection = v
	}
}

// loadPipelineFromEnv loads pipeline configuration from environment variables
func loadPipelineFromEnv(cfg *PipelineConfig) {
	if v := getEnvString("CONSUMER_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := getEnvString("PAYLOAD_FIELD"); v != "" {
		cfg.PayloadField = v
	}
	if v := getEnvDuration("SHUTDOWN_TIMEOUT"); v != 0 {
		cfg.ShutdownTimeout = v
	}
}

// loadMetricsFromEnv loads metrics configuration from environment variables
func loadMetricsFromEnv(cfg *MetricsConfig) {
	if v := getEnvString("METRICS_ADDRESS"); v != "" {
		cfg.Address = v
	}
}

// Helper functions for reading environment variables

func getEnvString(key string) string {
	return os.Getenv(key)
}

func getEnvInt(key string) int {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return intValue
}

func getEnvDuration(key string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return duration
}

func getEnvBool(key string) bool {
	value := os.Getenv(key)
	return value == "true"
}
