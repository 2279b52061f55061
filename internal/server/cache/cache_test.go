package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/pricemap/pkg/pricing"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute, time.Minute)
	cat := pricing.NewCatalog(map[string]pricing.Record{"a": {Key: "a"}})

	_, ok := c.Get("pricing", cat)
	assert.False(t, ok)

	c.Set("pricing", cat, []byte(`{}`))
	body, ok := c.Get("pricing", cat)
	assert.True(t, ok)
	assert.Equal(t, `{}`, string(body))
	assert.Equal(t, 1, c.ItemCount())
}

func TestStaleCatalogMisses(t *testing.T) {
	c := New(time.Minute, time.Minute)
	old := pricing.NewCatalog(map[string]pricing.Record{"a": {Key: "a"}})
	next := pricing.NewCatalog(map[string]pricing.Record{"b": {Key: "b"}})

	c.Set("pricing", old, []byte(`old`))
	_, ok := c.Get("pricing", next)
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := New(30*time.Millisecond, time.Minute)
	cat := pricing.EmptyCatalog()
	c.Set("k", cat, []byte("v"))

	assert.Eventually(t, func() bool {
		_, ok := c.Get("k", cat)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestClear(t *testing.T) {
	c := New(time.Minute, time.Minute)
	cat := pricing.EmptyCatalog()
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, cat, nil)
	}
	c.Clear()
	assert.Equal(t, 0, c.ItemCount())
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute, time.Minute)
	cat := pricing.EmptyCatalog()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i))
			for range 100 {
				c.Set(key, cat, []byte(key))
				c.Get(key, cat)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, c.ItemCount())
}
