package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowRefills(t *testing.T) {
	l := New(2, time.Second)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("a")
	assert.True(t, ok)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
	ok, wait := l.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	ok, _ = l.Allow("b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(500 * time.Millisecond)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
}

func TestEvictIdle(t *testing.T) {
	l := New(1, time.Second)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(time.Second)
	l.Allow("b")
	now = now.Add(1500 * time.Millisecond)
	l.evictIdle()
	assert.Equal(t, 1, l.Len())
}
