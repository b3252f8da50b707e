package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, Epoch, clock.Current())
	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_AdvancesPerCall(t *testing.T) {
	clock := NewDeterministicClock()

	first := clock.Now()
	second := clock.Now()

	assert.Equal(t, time.Second, second.Sub(first))
	assert.Equal(t, Epoch.Add(2*time.Second), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Now()
	clock.Now()

	clock.Reset()

	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_ConcurrentCallsAreDistinct(t *testing.T) {
	clock := NewDeterministicClock()
	const n = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[time.Time]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts := clock.Now()
			mu.Lock()
			seen[ts] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
