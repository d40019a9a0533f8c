// Package noop has a provider that does nothing.
package noop

import (
	"context"

	"go.uber.org/zap"
)

// Key is the provider key for Provider.
const Key = "noop"

// Provider ignores every update.
type Provider struct {
	// Silent, if false, will log a warning for every update.
	Silent bool

	logger *zap.Logger
}

func New(logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		logger: logger,
	}
}

func (p *Provider) Update(ctx context.Context, handle string, paths ...string) error {
	if !p.Silent {
		p.logger.Warn("update ignored", zap.String("handle", handle), zap.Strings("paths", paths))
	}
	return nil
}
