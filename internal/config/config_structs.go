// Package config provides configuration loading and validation from environment variables and command line flags.
package config

import (
	"fmt"
	"time"
)

// Consumer modes: inline scraped articles or scraper done notifications.
const (
	ModeArticles      = "articles"
	ModeNotifications = "notifications"
)

// Payload field names carried by stream entries, per consumer mode.
const (
	PayloadFieldArticle = "article"
	PayloadFieldDone    = "done"
)

// Config holds the complete configuration
type Config struct {
	Redis    RedisConfig
	Batch    BatchConfig
	Models   ModelsConfig
	Elastic  ElasticConfig
	Mongo    MongoConfig
	Pipeline PipelineConfig
	Metrics  MetricsConfig
}

// RedisConfig holds Redis stream consumer configuration
type RedisConfig struct {
	Host                string
	Port                int
	Stream              string
	Group               string
	ReadCount           int
	BlockTimeout        time.Duration
	ClaimIdle           time.Duration
	ClaimInterval       time.Duration
	ClaimMaxCount       int
	CleanupInterval     time.Duration
	ConsumerIdleTimeout time.Duration
	PingTimeout         time.Duration
}

// Address returns the broker endpoint in host:port form
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BatchConfig holds batch release thresholds
type BatchConfig struct {
	MaxSize int
	Timeout time.Duration
}

// ModelsConfig holds model serving endpoints and embedding geometry
type ModelsConfig struct {
	ClassifierEndpoint string
	EmbeddingsEndpoint string
	NEREndpoint        string // empty disables entity recognition
	EmbeddingsDims     int
	RequestTimeout     time.Duration
}

// ElasticConfig holds search index connection and index names
type ElasticConfig struct {
	Host            string
	User            string
	Password        string
	CAPath          string
	TLSInsecure     bool
	ArticlesIndex   string
	CategoriesIndex string
}

// MongoConfig holds the scraper repository connection (notification mode only)
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// PipelineConfig holds pipeline orchestration settings
type PipelineConfig struct {
	Mode            string
	PayloadField    string // empty derives from Mode at load time
	ShutdownTimeout time.Duration
}

// MetricsConfig holds the Prometheus listener settings
type MetricsConfig struct {
	Address string // empty disables the listener
}
