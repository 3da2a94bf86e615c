package monitor_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/message"
	"openpeer/internal/message/rolodex"
	"openpeer/internal/monitor"
	"openpeer/internal/queue"
)

type outcome struct {
	res message.Message
	err error
}

type fixture struct {
	clock *queue.FakeClock
	q     *queue.Queue
	mon   *monitor.Monitor
	disp  *monitor.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := queue.NewFakeClock(time.Unix(1_700_000_000, 0))
	q := queue.New("monitor-test", queue.WithClock(clock))
	t.Cleanup(q.Stop)
	reg := message.NewRegistry()
	rolodex.Register(reg)
	mon := monitor.New(q, zerolog.Nop())
	return &fixture{clock: clock, q: q, mon: mon, disp: monitor.NewDispatcher(q, reg, mon, zerolog.Nop())}
}

func (f *fixture) start(t *testing.T, timeout time.Duration) (*rolodex.AccessRequest, *monitor.Handle, *[]outcome) {
	t.Helper()
	req := rolodex.NewAccessRequest("example.com")
	var got []outcome
	var h *monitor.Handle
	require.True(t, f.q.Sync(func() {
		h = f.mon.Monitor(req, timeout, func(res message.Message, err error) {
			got = append(got, outcome{res, err})
		})
	}))
	return req, h, &got
}

func (f *fixture) deliver(t *testing.T, m message.Message) {
	t.Helper()
	b, err := message.EncodeBytes(m)
	require.NoError(t, err)
	f.disp.Deliver(b, "rolodex")
	f.q.Sync(func() {})
}

func (f *fixture) pending() int {
	n := 0
	f.q.Sync(func() { n = f.mon.Pending() })
	return n
}

func TestResultCompletesOnce(t *testing.T) {
	f := newFixture(t)
	req, h, got := f.start(t, 5*time.Second)

	res := &rolodex.AccessResult{Header: message.ResultHeader(&req.Header)}
	f.deliver(t, res)
	f.deliver(t, res)

	require.Len(t, *got, 1)
	assert.NoError(t, (*got)[0].err)
	assert.Equal(t, "rolodex", (*got)[0].res.Head().Source)
	assert.Zero(t, f.pending())

	f.clock.Advance(10 * time.Second)
	f.q.Sync(func() { h.Cancel() })
	assert.Len(t, *got, 1)
}

func TestTimeoutThenLateReplyDiscarded(t *testing.T) {
	f := newFixture(t)
	req, _, got := f.start(t, 5*time.Second)

	f.clock.Advance(4999 * time.Millisecond)
	f.q.Sync(func() {})
	assert.Empty(t, *got)

	f.clock.Advance(time.Millisecond)
	f.q.Sync(func() {})
	require.Len(t, *got, 1)
	err := (*got)[0].err
	assert.True(t, errors.Is(err, monitor.ErrTimeout))
	var merr *message.Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, message.CodeRequestTimeout, merr.Code)
	assert.Equal(t, req.ID, (*got)[0].res.Head().ID)

	f.deliver(t, &rolodex.AccessResult{Header: message.ResultHeader(&req.Header)})
	assert.Len(t, *got, 1)
	assert.Zero(t, f.pending())
}

func TestCancelIsSilentAndIdempotent(t *testing.T) {
	f := newFixture(t)
	req, h, got := f.start(t, time.Second)

	f.q.Sync(func() {
		h.Cancel()
		h.Cancel()
	})
	assert.True(t, h.Done())
	f.clock.Advance(time.Minute)
	f.deliver(t, &rolodex.AccessResult{Header: message.ResultHeader(&req.Header)})
	assert.Empty(t, *got)
	assert.Zero(t, f.clock.Pending())
}

func TestFailureResultDeliversError(t *testing.T) {
	f := newFixture(t)
	req, _, got := f.start(t, 0)

	f.deliver(t, message.NewErrorResult(&req.Header, message.CodeUnauthorized, "bad proof"))
	require.Len(t, *got, 1)
	var merr *message.Error
	require.True(t, errors.As((*got)[0].err, &merr))
	assert.Equal(t, 401, merr.Code)
}

func TestWrongMethodOrIDIsNotConsumed(t *testing.T) {
	f := newFixture(t)
	req, _, got := f.start(t, 0)

	var routed []message.Message
	unroute := f.disp.Route(message.ResultKey(rolodex.Handler, rolodex.MethodContactsGet), func(m message.Message) {
		routed = append(routed, m)
	})

	other := rolodex.NewContactsGetRequest("example.com")
	other.ID = req.ID
	f.deliver(t, &rolodex.ContactsGetResult{Header: message.ResultHeader(&other.Header)})
	assert.Empty(t, *got)
	assert.Len(t, routed, 1)

	stranger := rolodex.NewAccessRequest("example.com")
	f.deliver(t, &rolodex.AccessResult{Header: message.ResultHeader(&stranger.Header)})
	assert.Empty(t, *got)
	assert.Equal(t, 1, f.pending())

	unroute()
	f.deliver(t, &rolodex.ContactsGetResult{Header: message.ResultHeader(&other.Header)})
	assert.Len(t, routed, 1)
}

func TestMalformedBytesAreDropped(t *testing.T) {
	f := newFixture(t)
	f.disp.Deliver([]byte("<result"), "x")
	assert.True(t, f.q.Sync(func() {}))
}
