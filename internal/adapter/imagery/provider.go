// Package imagery supplies the tile URL template for the forest-age overlay.
package imagery

import (
	"context"
	"errors"
)

// ErrNotConfigured reports that no tile URL template is available.
var ErrNotConfigured = errors.New("imagery tile URL not configured")

// Provider returns a templated tile URL ({z}/{x}/{y}).
type Provider interface {
	TileURL(ctx context.Context) (string, error)
}

// StaticProvider serves a tile URL fixed at startup, typically one minted
// out of band by the imagery service.
type StaticProvider struct {
	template string
}

// NewStaticProvider creates a provider for template.
func NewStaticProvider(template string) *StaticProvider {
	return &StaticProvider{template: template}
}

func (p *StaticProvider) TileURL(_ context.Context) (string, error) {
	if p.template == "" {
		return "", ErrNotConfigured
	}
	return p.template, nil
}
