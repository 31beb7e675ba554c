package nft

import (
	"time"

	"github.com/code-payments/nft-minter/pkg/config"
	"github.com/code-payments/nft-minter/pkg/config/env"
	"github.com/code-payments/nft-minter/pkg/config/memory"
	"github.com/code-payments/nft-minter/pkg/config/wrapper"
	"github.com/code-payments/nft-minter/pkg/solana"
)

const (
	envConfigPrefix = "NFT_MINTER_"

	ConfirmationCommitmentConfigEnvName = envConfigPrefix + "CONFIRMATION_COMMITMENT"
	defaultConfirmationCommitment       = "confirmed"

	ConfirmationTimeoutConfigEnvName = envConfigPrefix + "CONFIRMATION_TIMEOUT"
	defaultConfirmationTimeout       = 90 * time.Second

	ConfirmationPollIntervalConfigEnvName = envConfigPrefix + "CONFIRMATION_POLL_INTERVAL"
	defaultConfirmationPollInterval       = solana.PollRate

	DisableReadBackConfigEnvName = envConfigPrefix + "DISABLE_READ_BACK"
	defaultDisableReadBack       = false

	EnableBalanceCheckConfigEnvName = envConfigPrefix + "ENABLE_BALANCE_CHECK"
	defaultEnableBalanceCheck       = false
)

type conf struct {
	confirmationCommitment   config.String
	confirmationTimeout      config.Duration
	confirmationPollInterval config.Duration
	disableReadBack          config.Bool
	enableBalanceCheck       config.Bool
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			confirmationCommitment:   env.NewStringConfig(ConfirmationCommitmentConfigEnvName, defaultConfirmationCommitment),
			confirmationTimeout:      env.NewDurationConfig(ConfirmationTimeoutConfigEnvName, defaultConfirmationTimeout),
			confirmationPollInterval: env.NewDurationConfig(ConfirmationPollIntervalConfigEnvName, defaultConfirmationPollInterval),
			disableReadBack:          env.NewBoolConfig(DisableReadBackConfigEnvName, defaultDisableReadBack),
			enableBalanceCheck:       env.NewBoolConfig(EnableBalanceCheckConfigEnvName, defaultEnableBalanceCheck),
		}
	}
}

type testOverrides struct {
	confirmationCommitment string
	confirmationTimeout    time.Duration
	disableReadBack        bool
	enableBalanceCheck     bool
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		commitment := overrides.confirmationCommitment
		if commitment == "" {
			commitment = "finalized"
		}
		timeout := overrides.confirmationTimeout
		if timeout == 0 {
			timeout = time.Second
		}

		return &conf{
			confirmationCommitment:   wrapper.NewStringConfig(memory.NewConfig(commitment), defaultConfirmationCommitment),
			confirmationTimeout:      wrapper.NewDurationConfig(memory.NewConfig(timeout), defaultConfirmationTimeout),
			confirmationPollInterval: wrapper.NewDurationConfig(memory.NewConfig(time.Millisecond), defaultConfirmationPollInterval),
			disableReadBack:          wrapper.NewBoolConfig(memory.NewConfig(overrides.disableReadBack), defaultDisableReadBack),
			enableBalanceCheck:       wrapper.NewBoolConfig(memory.NewConfig(overrides.enableBalanceCheck), defaultEnableBalanceCheck),
		}
	}
}
