package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetThenGetRoundTrips(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), time.Minute)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestMemoryCache_MissingKeyIsNotFound(t *testing.T) {
	c := New()
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestMemoryCache_ExpiredEntryIsNotFound(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), 0)
	time.Sleep(time.Millisecond)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestMemoryCache_SetCopiesValueDefensively(t *testing.T) {
	c := New()
	val := []byte("original")
	c.Set("k", val, time.Minute)
	val[0] = 'X'
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), got, "cache must not alias the caller's backing array")
}

func TestNewAuto_FallsBackToMemoryWithoutRedisAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	c := NewAuto()
	c.Set("k", []byte("v"), time.Minute)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}
