package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/message/namespacegrant"
	"openpeer/internal/session"
)

type bundleResult struct {
	b   info.ChallengeBundle
	err error
}

func collect(ch chan bundleResult) session.QueryFunc {
	return func(b info.ChallengeBundle, err error) { ch <- bundleResult{b, err} }
}

func TestGrantBatchesQueries(t *testing.T) {
	h := newHarness(t)
	grant := newGrant(h, h.server.Grantor())

	var mu sync.Mutex
	var windows [][2]bool
	grant.OnWindow(func(ready, visible bool) {
		mu.Lock()
		windows = append(windows, [2]bool{ready, visible})
		mu.Unlock()
	})

	results := make(chan bundleResult, 3)
	grant.Query(info.ChallengeInfo{ID: "c1", Name: "lockbox", Namespaces: []string{"ns1"}}, collect(results))
	grant.Query(info.ChallengeInfo{ID: "c2", Name: "mailbox", Namespaces: []string{"ns2"}}, collect(results))
	grant.Start()

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.err)
		assert.True(t, h.server.Grantor().VerifyBundle(r.b))
		seen[r.b.Challenge.ID] = true
	}
	assert.Equal(t, map[string]bool{"c1": true, "c2": true}, seen)
	assert.Equal(t, []message.Method{namespacegrant.MethodStart}, h.sentMethods())

	mu.Lock()
	assert.Equal(t, [][2]bool{{true, true}, {true, false}}, windows)
	mu.Unlock()

	waitState(t, grant.State, session.StateReady)
	grant.Query(info.ChallengeInfo{ID: "c3", Namespaces: []string{"ns3"}}, collect(results))
	r := <-results
	require.NoError(t, r.err)
	assert.Equal(t, "c3", r.b.Challenge.ID)
	assert.Len(t, h.sentMethods(), 2)
}

func TestGrantCancelledQuerySilent(t *testing.T) {
	h := newHarness(t)
	grant := newGrant(h, nil)
	results := make(chan bundleResult, 2)

	q := grant.Query(info.ChallengeInfo{ID: "gone"}, collect(results))
	q.Cancel()
	grant.Query(info.ChallengeInfo{ID: "kept"}, collect(results))
	grant.Start()

	r := <-results
	require.NoError(t, r.err)
	assert.Equal(t, "kept", r.b.Challenge.ID)
	h.client.Queue().Sync(func() {})
	assert.Empty(t, results)
}

func TestGrantShutdownAbortsQueries(t *testing.T) {
	h := newHarness(t)
	grant := newGrant(h, nil)
	results := make(chan bundleResult, 2)
	var log stateLog
	grant.OnState(log.observe)

	grant.Query(info.ChallengeInfo{ID: "c1"}, collect(results))
	grant.Shutdown()

	select {
	case r := <-results:
		assert.ErrorIs(t, r.err, session.ErrShutdown)
	case <-time.After(time.Second):
		t.Fatal("query not aborted")
	}
	waitState(t, grant.State, session.StateShutdown)

	grant.Query(info.ChallengeInfo{ID: "c2"}, collect(results))
	r := <-results
	assert.ErrorIs(t, r.err, session.ErrShutdown)
	assert.Equal(t, []session.State{session.StateShutdown}, log.snapshot())
}
