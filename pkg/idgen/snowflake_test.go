package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	Init(1)
	m.Run()
}

func TestNextIDUnique(t *testing.T) {
	const n = 10000
	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		id := NextID()
		assert.False(t, seen[id], "ID 重复: %d", id)
		seen[id] = true
	}
}

func TestNextIDConcurrent(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*perGoroutine)
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				assert.False(t, seen[id])
				seen[id] = true
			}
		}()
	}
	wg.Wait()
}

func TestGenerateRedemptionID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateRedemptionID()
		assert.True(t, strings.HasPrefix(id, "RED"))
		assert.Len(t, id, 3+14+8)
		assert.False(t, seen[id], "兑换单号重复: %s", id)
		seen[id] = true
	}
}

func TestGenerateEventKey(t *testing.T) {
	key := GenerateEventKey()
	assert.True(t, strings.HasPrefix(key, "EVT"))
}
