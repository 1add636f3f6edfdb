package imagery_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/floreser-dashboard/internal/adapter/imagery"
)

func TestStaticProvider_TileURL(t *testing.T) {
	const tmpl = "https://earthengine.googleapis.com/v1/projects/p/maps/m/tiles/{z}/{x}/{y}"
	p := imagery.NewStaticProvider(tmpl)

	url, err := p.TileURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tmpl, url)
}

func TestStaticProvider_NotConfigured(t *testing.T) {
	_, err := imagery.NewStaticProvider("").TileURL(context.Background())
	require.ErrorIs(t, err, imagery.ErrNotConfigured)
}
