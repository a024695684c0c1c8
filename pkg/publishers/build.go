package publishers

import (
	"context"
	"fmt"
	"strings"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Builders maps publisher types to their builders.
type Builders map[string]Builder

// DefaultBuilders returns the builders for the supported publisher types.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:  newHTTPPublisher,
		TypeQueue: newQueuePublisher,
	}
}

// Build instantiates the publisher for one config entry.
func (b Builders) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}
	builder, ok := b[strings.ToLower(cfg.Type)]
	if !ok || builder == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, ensureLogger(log))
}

// BuildAll instantiates publishers for every config entry, stopping at the first failure.
func (b Builders) BuildAll(ctx context.Context, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// FromFile loads the publishers file and builds every enabled publisher.
func FromFile(ctx context.Context, path string, log Logger) ([]Publisher, error) {
	reg, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}

	enabled := reg.Enabled()
	ensureLogger(log).InfoObj("publishers loaded", "publishers_loaded", map[string]any{
		"file":    path,
		"total":   len(reg.All()),
		"enabled": len(enabled),
	})

	return DefaultBuilders().BuildAll(ctx, enabled, log)
}
