package config

import "fmt"

// Validate checks configuration constraints
func Validate(cfg *Config) error {
	if err := validateRedis(&cfg.Redis); err != nil {
		return err
	}
	if err := validateBatch(&cfg.Batch); err != nil {
		return err
	}
	if err := validateModels(&cfg.Models); err != nil {
		return err
	}
	if err := validateElastic(&cfg.Elastic); err != nil {
		return err
	}
	if cfg.Pipeline.Mode == ModeNotifications {
		if err := validateMongo(&cfg.Mongo); err != nil {
			return err
		}
	}
	return validatePipeline(&cfg.Pipeline)
}

// validateRedis validates Redis configuration
func validateRedis(cfg *RedisConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("redis host cannot be empty")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("redis port must be in range 1-65535")
	}
	if cfg.Stream == "" {
		return fmt.Errorf("redis stream name cannot be empty")
	}
	if cfg.Group == "" {
		return fmt.Errorf("redis consumer group cannot be empty")
	}
	if cfg.ReadCount < 1 {
		return fmt.Errorf("redis read count must be positive")
	}
	if cfg.ClaimMaxCount < 1 {
		return fmt.Errorf("redis claim max count must be positive")
	}
	return nil
}

// validateBatch validates batch thresholds
func validateBatch(cfg *BatchConfig) error {
	if cfg.MaxSize < 1 {
		return fmt.Errorf("max batch size must be positive")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("max batch timeout must be positive")
	}
	return nil
}

// validateModels validates model serving configuration
func validateModels(cfg *ModelsConfig) error {
	if cfg.ClassifierEndpoint == "" {
		return fmt.Errorf("classifier endpoint cannot be empty")
	}
	if cfg.EmbeddingsEndpoint == "" {
		return fmt.Errorf("embeddings endpoint cannot be empty")
	}
	if cfg.EmbeddingsDims < 1 {
		return fmt.Errorf("embeddings dims must be positive")
	}
	return nil
}

// validateElastic validates Elasticsearch configuration
func validateElastic(cfg *ElasticConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("elastic host cannot be empty")
	}
	if cfg.ArticlesIndex == "" {
		return fmt.Errorf("elastic articles index cannot be empty")
	}
	if cfg.CategoriesIndex == "" {
		return fmt.Errorf("elastic categories index cannot be empty")
	}
	return nil
}

// validateMongo validates the scraper repository configuration
func validateMongo(cfg *MongoConfig) error {
	if cfg.URI == "" {
		return fmt.Errorf("mongo uri cannot be empty")
	}
	if cfg.Database == "" {
		return fmt.Errorf("mongo database cannot be empty")
	}
	if cfg.Collection == "" {
		return fmt.Errorf("mongo collection cannot be empty")
	}
	return nil
}

// validatePipeline validates pipeline configuration
func validatePipeline(cfg *PipelineConfig) error {
	if cfg.Mode != ModeArticles && cfg.Mode != ModeNotifications {
		return fmt.Errorf("consumer mode must be %q or %q", ModeArticles, ModeNotifications)
	}
	if cfg.PayloadField == "" {
		return fmt.Errorf("payload field cannot be empty")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}
