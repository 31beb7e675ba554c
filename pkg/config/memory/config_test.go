package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/config"
)

func TestConfig(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(nil)
	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue("finalized")
	v, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "finalized", v)

	induced := errors.New("induced")
	c.SetError(induced)
	_, err = c.Get(ctx)
	assert.Equal(t, induced, err)

	c.SetError(nil)
	c.ClearValue()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}
