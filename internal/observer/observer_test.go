package observer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"openpeer/internal/observer"
)

func TestRegistrationOrderAndCancel(t *testing.T) {
	var l observer.List[string]
	l.Register("a")
	sb := l.Register("b")
	l.Register("c")

	var got []string
	l.Each(func(s string) { got = append(got, s) })
	assert.Equal(t, []string{"a", "b", "c"}, got)

	sb.Cancel()
	sb.Cancel()
	got = nil
	l.Each(func(s string) { got = append(got, s) })
	assert.Equal(t, []string{"a", "c"}, got)
	assert.Equal(t, 2, l.Len())
}

func TestCancelDuringDispatchSkipsLaterSubscriber(t *testing.T) {
	var l observer.List[func()]
	var second *observer.Subscription
	calls := 0
	l.Register(func() { calls++; second.Cancel() })
	second = l.Register(func() { calls += 10 })
	l.Register(func() { calls += 100 })

	l.Each(func(fn func()) { fn() })
	assert.Equal(t, 101, calls)
}

func TestClear(t *testing.T) {
	var l observer.List[int]
	s := l.Register(1)
	l.Clear()
	assert.Zero(t, l.Len())
	s.Cancel()

	var nilSub *observer.Subscription
	nilSub.Cancel()
}
