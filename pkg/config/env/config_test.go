package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/nft-minter/pkg/config"
)

func TestConfig(t *testing.T) {
	const key = "NFT_MINTER_ENV_CONFIG_TEST"
	ctx := context.Background()

	_, err := NewConfig(key).Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	t.Setenv(key, "finalized")
	v, err := NewConfig(key).Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []byte("finalized"), v)
}

func TestConfig_ReadsLowerCaseKeysUpperCased(t *testing.T) {
	t.Setenv("NFT_MINTER_ENV_CASE_TEST", "true")
	assert.True(t, NewBoolConfig("nft_minter_env_case_test", false).Get(context.Background()))
}

func TestConfig_ObservesChanges(t *testing.T) {
	const key = "NFT_MINTER_ENV_TIMEOUT_TEST"
	ctx := context.Background()

	value := NewDurationConfig(key, 90*time.Second)
	assert.Equal(t, 90*time.Second, value.Get(ctx))

	t.Setenv(key, "5s")
	assert.Equal(t, 5*time.Second, value.Get(ctx))
}
