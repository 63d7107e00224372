package hrstore

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFetchesOncePerWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCache(5*time.Minute, func() time.Time { return now })

	calls := 0
	fetch := func() (any, error) {
		calls++
		return "value", nil
	}

	v, err := c.Get("persons", fetch)
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, calls)

	// Within the TTL window the store must not be re-invoked.
	now = now.Add(4 * time.Minute)
	_, err = c.Get("persons", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// At exactly the TTL boundary the entry is expired.
	now = now.Add(time.Minute)
	_, err = c.Get("persons", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCacheInvalidateAll(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCache(5*time.Minute, func() time.Time { return now })

	calls := 0
	fetch := func() (any, error) {
		calls++
		return calls, nil
	}

	_, err := c.Get("persons", fetch)
	require.NoError(t, err)

	c.InvalidateAll()

	v, err := c.Get("persons", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCacheFetchFailureIsNotStored(t *testing.T) {
	c := NewCache(5*time.Minute, nil)

	boom := errors.New("store down")
	_, err := c.Get("persons", func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	// Next call must retry, not serve a stale/partial entry.
	v, err := c.Get("persons", func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCacheKeysAreIndependent(t *testing.T) {
	c := NewCache(time.Minute, nil)

	_, err := c.Get("persons", func() (any, error) { return "p", nil })
	require.NoError(t, err)

	v, err := c.Get("entities", func() (any, error) { return "e", nil })
	require.NoError(t, err)
	assert.Equal(t, "e", v)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache(time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.Get("persons", func() (any, error) { return "v", nil })
		}()
		go func() {
			defer wg.Done()
			c.InvalidateAll()
		}()
	}
	wg.Wait()

	v, err := c.Get("persons", func() (any, error) { return "v", nil })
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
