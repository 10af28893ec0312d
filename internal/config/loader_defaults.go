package config

import "time"

// defaultRedisConfig returns the default Redis configuration
func defaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:                "localhost",
		Port:                6379,
		Stream:              "scraped_articles",
		Group:               "article_analyzer",
		ReadCount:           10,
		BlockTimeout:        10 * time.Second,
		ClaimIdle:           30 * time.Second,
		ClaimInterval:       2 * time.Minute,
		ClaimMaxCount:       20,
		CleanupInterval:     10 * time.Minute,
		ConsumerIdleTimeout: 30 * time.Minute,
		PingTimeout:         5 * time.Second,
	}
}

// defaultBatchConfig returns the default batch thresholds
func defaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxSize: 300,
		Timeout: 5000 * time.Millisecond,
	}
}

// defaultModelsConfig returns the default model serving configuration
func defaultModelsConfig() ModelsConfig {
	return ModelsConfig{
		ClassifierEndpoint: "http://localhost:8501/models/category-classifier",
		EmbeddingsEndpoint: "http://localhost:8501/models/embeddings",
		NEREndpoint:        "",
		EmbeddingsDims:     384,
		RequestTimeout:     60 * time.Second,
	}
}

// defaultElasticConfig returns the default Elasticsearch configuration
func defaultElasticConfig() ElasticConfig {
	return ElasticConfig{
		Host:            "https://localhost:9200",
		User:            "elastic",
		Password:        "",
		CAPath:          "certs/_data/ca/ca.crt",
		TLSInsecure:     false,
		ArticlesIndex:   "articles",
		CategoriesIndex: "categories",
	}
}

// defaultMongoConfig returns the default scraper repository configuration
func defaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "scraper",
		Collection: "scraped_articles",
	}
}

// defaultPipelineConfig returns the default pipeline configuration
func defaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Mode:            ModeArticles,
		PayloadField:    "", // derived from Mode in runtime validation
		ShutdownTimeout: 10 * time.Second,
	}
}

// defaultMetricsConfig returns the default metrics configuration
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Address: "",
	}
}

// defaultConfig returns a complete configuration with all default values
func defaultConfig() *Config {
	return &Config{
		Redis:    defaultRedisConfig(),
		Batch:    defaultBatchConfig(),
		Models:   defaultModelsConfig(),
		Elastic:  defaultElasticConfig(),
		Mongo:    defaultMongoConfig(),
		Pipeline: defaultPipelineConfig(),
		Metrics:  defaultMetricsConfig(),
	}
}
