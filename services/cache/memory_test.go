package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var _ CacheService = (*MemoryService)(nil)
var _ CacheService = (*MemcacheService)(nil)

func TestMemoryService(t *testing.T) {
	mc := NewMemoryService(time.Minute)

	_, err := mc.Get("missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	value := []byte("500")
	assert.NoError(t, mc.Set("privateproperty_rate_limited", value, time.Minute))
	value[0] = '9'

	got, err := mc.Get("privateproperty_rate_limited")
	assert.NoError(t, err)
	assert.Equal(t, "500", string(got))

	assert.NoError(t, mc.Delete("privateproperty_rate_limited"))
	_, err = mc.Get("privateproperty_rate_limited")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryServiceExpiration(t *testing.T) {
	mc := NewMemoryService(time.Minute)

	assert.NoError(t, mc.Set("short", []byte("x"), 20*time.Millisecond))
	assert.NoError(t, mc.Set("forever", []byte("y"), 0))

	time.Sleep(50 * time.Millisecond)

	_, err := mc.Get("short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	got, err := mc.Get("forever")
	assert.NoError(t, err)
	assert.Equal(t, "y", string(got))
}
