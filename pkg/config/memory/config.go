package memory

import (
	"context"
	"sync"

	"github.com/code-payments/nft-minter/pkg/config"
)

// Config is an in memory config.Source for tests. A nil value behaves as
// unset.
type Config struct {
	stateMu  sync.RWMutex
	value    interface{}
	err      error
	shutdown bool
}

func NewConfig(value interface{}) *Config {
	return &Config{
		value: value,
	}
}

// Get implements config.Source.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Source.Shutdown
func (c *Config) Shutdown() {
	c.stateMu.Lock()
	c.shutdown = true
	c.stateMu.Unlock()
}

func (c *Config) SetValue(value interface{}) {
	c.stateMu.Lock()
	c.value = value
	c.stateMu.Unlock()
}

func (c *Config) ClearValue() {
	c.SetValue(nil)
}

// SetError makes subsequent Get calls fail with err until it's cleared with
// a nil error.
func (c *Config) SetError(err error) {
	c.stateMu.Lock()
	c.err = err
	c.stateMu.Unlock()
}
