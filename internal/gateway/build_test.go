package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/internal/config"
)

func TestFromConfig_Remote(t *testing.T) {
	t.Parallel()

	gw := FromConfig(&config.Config{GatewayURL: "http://localhost:1", GatewayTimeout: DefaultTimeout}, nil)

	b, ok := gw.(*Bounded)
	require.True(t, ok)
	assert.IsType(t, &Remote{}, b.next)
}

func TestFromConfig_MissingKeysDegrade(t *testing.T) {
	gokeyring.MockInit()

	gw := FromConfig(&config.Config{GatewayTimeout: DefaultTimeout}, nil)
	ctx := context.Background()

	got := gw.Transcribe(ctx, Audio{Data: []byte("x")})
	assert.Equal(t, StatusManualEntry, got.Status)

	text, err := gw.Enhance(ctx, "keep", StylePolish)
	require.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
	assert.Equal(t, "keep", text)

	_, err = gw.StartConversation(ctx)
	require.ErrorIs(t, err, apperr.ErrGatewayUnavailable)
}
