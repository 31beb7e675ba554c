package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstant(t *testing.T) {
	s := Constant(250 * time.Millisecond)

	for attempts := uint(1); attempts < 10; attempts++ {
		assert.Equal(t, 250*time.Millisecond, s(attempts))
	}
}

func TestExponential(t *testing.T) {
	s := Exponential(2*time.Second, 3)

	assert.Equal(t, 2*time.Second, s(1))
	assert.Equal(t, 6*time.Second, s(2))
	assert.Equal(t, 18*time.Second, s(3))
	assert.Equal(t, 54*time.Second, s(4))
}

func TestExponential_Saturates(t *testing.T) {
	s := Exponential(time.Second, 10)
	assert.EqualValues(t, math.MaxInt64, s(100))
}

func TestBinaryExponential(t *testing.T) {
	s := BinaryExponential(time.Second)

	assert.Equal(t, time.Second, s(1))
	assert.Equal(t, 2*time.Second, s(2))
	assert.Equal(t, 4*time.Second, s(3))
	assert.Equal(t, 8*time.Second, s(4))
}
