package locationdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/domain"
	"openpeer/internal/locationdb"
	"openpeer/internal/message"
	"openpeer/internal/message/database"
	"openpeer/internal/message/info"
	"openpeer/internal/monitor"
	"openpeer/internal/queue"
	"openpeer/internal/relay"
)

type node struct {
	engine *locationdb.Engine
	disp   *monitor.Dispatcher
	ep     *relay.Endpoint
}

func newNode(t *testing.T, net *relay.Network, name string) *node {
	t.Helper()
	eq := queue.New(name + "-engine")
	dq := queue.New(name + "-dispatch")
	t.Cleanup(func() {
		dq.Stop()
		eq.Stop()
	})
	reg := message.NewRegistry()
	database.Register(reg)
	log := zerolog.Nop()
	d := monitor.NewDispatcher(dq, reg, monitor.New(dq, log), log)
	return &node{
		engine: locationdb.NewEngine(eq),
		disp:   d,
		ep:     net.Attach(name, d),
	}
}

func entryState(e *locationdb.Engine, loc domain.Location, db string) func() []versioned {
	return func() []versioned {
		recs, _ := e.GetUpdates(loc, db, 0)
		return summarize(recs)
	}
}

func TestReplicaFollowsOwner(t *testing.T) {
	net := relay.NewNetwork()
	owner := newNode(t, net, "owner")
	follower := newNode(t, net, "follower")

	svc := locationdb.NewService(locationdb.ServiceConfig{
		Engine:     owner.engine,
		Dispatcher: owner.disp,
		Transport:  owner.ep,
		Domain:     "example.com",
	})
	svc.Start()
	defer svc.Close()

	require.True(t, owner.engine.CreateDatabase(locA, "db", `{"name":"notes"}`, time.Time{}))
	require.True(t, owner.engine.AddEntry(locA, "db", "e1", "one", ""))
	require.True(t, owner.engine.AddEntry(locA, "db", "e2", "two", ""))
	require.True(t, owner.engine.UpdateEntry(locA, "db", "e1", "uno"))

	rep := locationdb.NewReplica(locationdb.ReplicaConfig{
		Engine:     follower.engine,
		Dispatcher: follower.disp,
		Transport:  follower.ep,
		Remote:     "owner",
		Location:   locA,
		Domain:     "example.com",
		Timeout:    5 * time.Second,
	})
	rep.Start()

	current := entryState(follower.engine, locA, "db")
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]versioned{
			{"e2", 2, domain.DispositionAdd},
			{"e1", 3, domain.DispositionAdd},
		}, current())
	}, 2*time.Second, 10*time.Millisecond)

	got := follower.engine.GetEntries(locA, "db", []string{"e1"})
	require.Len(t, got, 1)
	assert.Equal(t, "uno", got[0].Data)
	rec, ok := follower.engine.Database(locA, "db")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"notes"}`, rec.MetaData)

	// Live changes arrive as notifies.
	require.True(t, owner.engine.RemoveEntry(locA, "db", "e2"))
	require.True(t, owner.engine.AddEntry(locA, "db", "e3", "three", ""))
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]versioned{
			{"e1", 3, domain.DispositionAdd},
			{"e2", 4, domain.DispositionRemove},
			{"e3", 5, domain.DispositionAdd},
		}, current())
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		v, _ := follower.engine.DownloadedVersion(locA, "db")
		return v == 5
	}, 2*time.Second, 10*time.Millisecond)

	// New databases are picked up from the list.
	require.True(t, owner.engine.CreateDatabase(locA, "db2", "", time.Time{}))
	require.True(t, owner.engine.AddEntry(locA, "db2", "x", "y", ""))
	require.Eventually(t, func() bool {
		return len(entryState(follower.engine, locA, "db2")()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, svc.Subscriptions())

	rep.Stop()
	require.Eventually(t, func() bool { return svc.Subscriptions() == 0 }, 2*time.Second, 10*time.Millisecond)

	var pending int
	follower.disp.Queue().Sync(func() { pending = rep.Pending() })
	assert.Zero(t, pending)
}

func TestServiceUnknownDatabase(t *testing.T) {
	net := relay.NewNetwork()
	owner := newNode(t, net, "owner")
	client := newNode(t, net, "client")

	svc := locationdb.NewService(locationdb.ServiceConfig{
		Engine:     owner.engine,
		Dispatcher: owner.disp,
		Transport:  owner.ep,
		Domain:     "example.com",
	})
	svc.Start()
	defer svc.Close()

	req := database.NewSubscribeRequest("example.com")
	req.Location = info.FromLocation(locA)
	req.DatabaseID = "missing"

	errs := make(chan error, 1)
	client.disp.Queue().Sync(func() {
		client.disp.Monitor().Monitor(req, time.Second, func(_ message.Message, err error) {
			errs <- err
		})
	})
	require.NoError(t, client.ep.Send(context.Background(), "owner", req))

	select {
	case err := <-errs:
		var merr *message.Error
		require.True(t, errors.As(err, &merr))
		assert.Equal(t, message.CodeNotFound, merr.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply")
	}
	assert.Zero(t, svc.Subscriptions())
}

func TestServiceDataGet(t *testing.T) {
	net := relay.NewNetwork()
	owner := newNode(t, net, "owner")
	client := newNode(t, net, "client")

	svc := locationdb.NewService(locationdb.ServiceConfig{
		Engine:     owner.engine,
		Dispatcher: owner.disp,
		Transport:  owner.ep,
		Domain:     "example.com",
	})
	svc.Start()
	defer svc.Close()

	require.True(t, owner.engine.CreateDatabase(locA, "db", "", time.Time{}))
	require.True(t, owner.engine.AddEntry(locA, "db", "e1", `{"k":1}`, ""))
	require.True(t, owner.engine.AddEntry(locA, "db", "e2", `{"k":2}`, ""))

	req := database.NewDataGetRequest("example.com")
	req.Location = info.FromLocation(locA)
	req.DatabaseID = "db"
	req.EntryIDs = []string{"e2", "nope"}

	results := make(chan *database.EntriesResult, 1)
	client.disp.Queue().Sync(func() {
		client.disp.Monitor().Monitor(req, time.Second, func(res message.Message, err error) {
			if err == nil {
				results <- res.(*database.EntriesResult)
			}
		})
	})
	require.NoError(t, client.ep.Send(context.Background(), "owner", req))

	select {
	case res := <-results:
		require.Len(t, res.Entries, 1)
		assert.Equal(t, "e2", res.Entries[0].ID)
		assert.JSONEq(t, `{"k":2}`, res.Entries[0].Data)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply")
	}
}
