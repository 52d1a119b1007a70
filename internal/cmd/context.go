package cmd

import (
	"context"

	"github.com/jmgilman/uiversion/internal/config"
	"github.com/jmgilman/uiversion/internal/stamp"
)

type contextKey string

const (
	configKey  contextKey = "config"
	stamperKey contextKey = "stamper"
)

// WithConfig adds the resolved config to the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// ConfigFromContext retrieves the config from context.
func ConfigFromContext(ctx context.Context) *config.Config {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		return nil
	}
	return cfg
}

// WithStamper adds the stamper to the context.
func WithStamper(ctx context.Context, s *stamp.Stamper) context.Context {
	return context.WithValue(ctx, stamperKey, s)
}

// StamperFromContext retrieves the stamper from context.
func StamperFromContext(ctx context.Context) *stamp.Stamper {
	s, ok := ctx.Value(stamperKey).(*stamp.Stamper)
	if !ok {
		return nil
	}
	return s
}
