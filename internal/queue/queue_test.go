package queue_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/queue"
)

func TestTasksRunInOrder(t *testing.T) {
	q := queue.New("test")
	defer q.Stop()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, q.Post(func() { got = append(got, i) }))
	}
	require.True(t, q.Sync(func() {}))
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestStopDrainsAndRefuses(t *testing.T) {
	q := queue.New("test")
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		q.Post(func() { n.Add(1) })
	}
	q.Stop()
	q.Stop()
	<-q.Done()

	assert.Equal(t, int32(10), n.Load())
	assert.False(t, q.Post(func() {}))
	assert.False(t, q.Sync(func() {}))
}

func TestPanicDoesNotKillQueue(t *testing.T) {
	q := queue.New("test")
	defer q.Stop()

	q.Post(func() { panic("boom") })
	ran := false
	require.True(t, q.Sync(func() { ran = true }))
	assert.True(t, ran)
}

func TestDelayedTasksWithFakeClock(t *testing.T) {
	clock := queue.NewFakeClock(time.Unix(0, 0))
	q := queue.New("test", queue.WithClock(clock))
	defer q.Stop()

	var got []string
	q.PostDelayed(2*time.Second, func() { got = append(got, "b") })
	q.PostDelayed(time.Second, func() { got = append(got, "a") })
	stopped := q.PostDelayed(3*time.Second, func() { got = append(got, "never") })
	require.Equal(t, 3, clock.Pending())

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	clock.Advance(1500 * time.Millisecond)
	q.Sync(func() {})
	assert.Equal(t, []string{"a"}, got)

	clock.Advance(10 * time.Second)
	q.Sync(func() {})
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Zero(t, clock.Pending())
}
