package config

import "fmt"

// applyRuntimeValidation applies runtime validations and transformations
func applyRuntimeValidation(cfg *Config) error {
	return applyPayloadField(cfg)
}

// applyPayloadField derives the stream payload field from the consumer mode
// when it was not set explicitly.
func applyPayloadField(cfg *Config) error {
	switch cfg.Pipeline.Mode {
	case ModeArticles:
		if cfg.Pipeline.PayloadField == "" {
			cfg.Pipeline.PayloadField = PayloadFieldArticle
		}
	case ModeNotifications:
		if cfg.Pipeline.PayloadField == "" {
			cfg.Pipeline.PayloadField = PayloadFieldDone
		}
	default:
		return fmt.Errorf("unknown consumer mode %q (expected %q or %q)",
			cfg.Pipeline.Mode, ModeArticles, ModeNotifications)
	}
	return nil
}
