package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/nft-minter/pkg/config"
	"github.com/code-payments/nft-minter/pkg/config/wrapper"
)

type source struct {
	key string
}

// NewConfig returns a config.Source that reads the upper cased key from the
// environment on every Get, so changes apply without a restart.
func NewConfig(key string) config.Source {
	return &source{
		key: strings.ToUpper(key),
	}
}

// Get implements config.Source.Get
func (s *source) Get(_ context.Context) (interface{}, error) {
	val, ok := os.LookupEnv(s.key)
	if !ok || len(val) == 0 {
		return nil, config.ErrNoValue
	}
	return []byte(val), nil
}

// Shutdown implements config.Source.Shutdown
func (s *source) Shutdown() {
}

func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
