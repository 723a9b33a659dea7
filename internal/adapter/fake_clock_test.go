package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_FiresTimersInOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	var fired []string
	clock.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	clock.AfterFunc(time.Second, func() {
		fired = append(fired, "a")
		// scheduled while advancing and still due
		clock.AfterFunc(500*time.Millisecond, func() { fired = append(fired, "a2") })
	})
	stopped := clock.AfterFunc(1500*time.Millisecond, func() { fired = append(fired, "stopped") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	clock.Advance(time.Second)
	assert.Equal(t, []string{"a"}, fired)
	assert.Equal(t, start.Add(time.Second), clock.Now())

	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "a2", "b"}, fired)
	assert.Equal(t, start.Add(6*time.Second), clock.Now())
	assert.Equal(t, 0, clock.PendingTimers())
}

func TestFakeClock_After(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	ch := clock.After(time.Minute)

	select {
	case <-ch:
		t.Fatal("fired early")
	default:
	}

	clock.Advance(time.Minute)
	assert.Equal(t, time.Unix(60, 0), <-ch)
}
