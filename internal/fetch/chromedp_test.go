package fetch

import (
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_DisabledByConfig(t *testing.T) {
	t.Parallel()

	_, err := NewRenderer(RendererConfig{Enabled: false}, nil)
	require.ErrorIs(t, err, ErrRendererDisabled)
}

func TestResponseMeta_KeepsFirstDocumentResponse(t *testing.T) {
	t.Parallel()

	meta := newResponseMeta()
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeScript,
		Response: &network.Response{Status: 404},
	})
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: 503},
	})
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: 200},
	})
	require.Equal(t, 503, meta.status())
}

func TestResponseMeta_DefaultsToOK(t *testing.T) {
	t.Parallel()

	require.Equal(t, 200, newResponseMeta().status())
}
