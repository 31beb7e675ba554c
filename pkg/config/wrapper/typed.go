package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-minter/pkg/config"
)

// ErrUnsupportedConversion indicates the source returned a type the value
// can't be converted from.
var ErrUnsupportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// Parser converts a raw string from a source into T.
type Parser[T any] func(raw string) (T, error)

type typed[T any] struct {
	source       config.Source
	defaultValue T
	parse        Parser[T]

	stateMu   sync.RWMutex
	lastValue T
}

// New wraps source into a typed value. The default applies while the source
// has no value.
func New[T any](source config.Source, defaultValue T, parse Parser[T]) config.Value[T] {
	return &typed[T]{
		source:       source,
		defaultValue: defaultValue,
		parse:        parse,
		lastValue:    defaultValue,
	}
}

func NewBoolConfig(source config.Source, defaultValue bool) config.Bool {
	return New(source, defaultValue, strconv.ParseBool)
}

func NewStringConfig(source config.Source, defaultValue string) config.String {
	return New(source, defaultValue, func(raw string) (string, error) {
		return raw, nil
	})
}

func NewDurationConfig(source config.Source, defaultValue time.Duration) config.Duration {
	return New(source, defaultValue, time.ParseDuration)
}

func (c *typed[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.source.Get(ctx)
	if errors.Is(err, config.ErrNoValue) {
		c.store(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return c.last(), err
	}

	var value T
	switch v := raw.(type) {
	case T:
		value = v
	case []byte:
		value, err = c.parse(string(v))
		if err != nil {
			return c.last(), err
		}
	default:
		return c.last(), ErrUnsupportedConversion
	}

	c.store(value)
	return value, nil
}

func (c *typed[T]) Get(ctx context.Context) T {
	v, _ := c.GetSafe(ctx)
	return v
}

func (c *typed[T]) Shutdown() {
	c.source.Shutdown()
}

func (c *typed[T]) last() T {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastValue
}

func (c *typed[T]) store(v T) {
	c.stateMu.Lock()
	c.lastValue = v
	c.stateMu.Unlock()
}
