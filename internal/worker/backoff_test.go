package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoublesFromBase(t *testing.T) {
	b := Backoff{Attempts: 5, Base: 2 * time.Second, Cap: time.Minute}

	assert.Equal(t, 2*time.Second, b.Next(1))
	assert.Equal(t, 4*time.Second, b.Next(2))
	assert.Equal(t, 8*time.Second, b.Next(3))
}

func TestBackoffCapped(t *testing.T) {
	b := Backoff{Base: 2 * time.Second, Cap: time.Minute}

	assert.Equal(t, time.Minute, b.Next(10))
	assert.Equal(t, time.Minute, b.Next(100))
}

func TestBackoffZeroValueDefaults(t *testing.T) {
	var b Backoff

	assert.Equal(t, 2*time.Second, b.Next(1))
	assert.Equal(t, time.Minute, b.Next(50))
	assert.False(t, b.Exhausted(4))
	assert.True(t, b.Exhausted(5))
}

func TestBackoffExhausted(t *testing.T) {
	b := Backoff{Attempts: 2}

	assert.False(t, b.Exhausted(0))
	assert.False(t, b.Exhausted(1))
	assert.True(t, b.Exhausted(2))
	assert.True(t, b.Exhausted(3))
}
