package locationdb_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/domain"
	"openpeer/internal/locationdb"
	"openpeer/internal/queue"
)

var locA = domain.Location{PeerURI: "peer://example.com/a", LocationID: "loc-a"}

func newEngine(t *testing.T, opts ...locationdb.Option) (*locationdb.Engine, *queue.FakeClock) {
	t.Helper()
	clock := queue.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	q := queue.New("engine", queue.WithClock(clock))
	t.Cleanup(q.Stop)
	return locationdb.NewEngine(q, opts...), clock
}

type versioned struct {
	id      string
	version uint64
	disp    domain.Disposition
}

func summarize(recs []domain.EntryRecord) []versioned {
	var out []versioned
	for _, r := range recs {
		out = append(out, versioned{r.EntryID, r.UpdateVersion, r.Disposition})
	}
	return out
}

func TestUpdatesOrderedByVersion(t *testing.T) {
	e, _ := newEngine(t)
	require.True(t, e.CreateDatabase(locA, "db", `{"title":"notes"}`, time.Time{}))

	require.True(t, e.AddEntry(locA, "db", "e1", "one", ""))
	require.True(t, e.AddEntry(locA, "db", "e2", "two", ""))
	require.True(t, e.UpdateEntry(locA, "db", "e1", "one, again"))

	recs, next := e.GetUpdates(locA, "db", 0)
	assert.Equal(t, []versioned{
		{"e2", 2, domain.DispositionAdd},
		{"e1", 3, domain.DispositionAdd},
	}, summarize(recs))
	assert.Equal(t, uint64(3), next)
	assert.Equal(t, "one, again", recs[1].Data)
	assert.Equal(t, len("one, again"), recs[1].DataLength)

	recs, next = e.GetUpdates(locA, "db", next)
	assert.Empty(t, recs)
	assert.Equal(t, uint64(3), next)

	recs, _ = e.GetUpdates(locA, "db", 2)
	assert.Equal(t, []versioned{{"e1", 3, domain.DispositionAdd}}, summarize(recs))
}

func TestEntryContract(t *testing.T) {
	e, _ := newEngine(t)
	assert.False(t, e.AddEntry(locA, "db", "e1", "x", ""), "no database")
	require.True(t, e.CreateDatabase(locA, "db", "", time.Time{}))
	assert.False(t, e.CreateDatabase(locA, "db", "", time.Time{}), "duplicate database")

	require.True(t, e.AddEntry(locA, "db", "e1", "x", ""))
	assert.False(t, e.AddEntry(locA, "db", "e1", "y", ""), "duplicate add")
	assert.False(t, e.UpdateEntry(locA, "db", "missing", "y"))
	assert.False(t, e.RemoveEntry(locA, "db", "missing"))

	require.True(t, e.RemoveEntry(locA, "db", "e1"))
	assert.False(t, e.UpdateEntry(locA, "db", "e1", "y"), "update after remove")
	assert.False(t, e.RemoveEntry(locA, "db", "e1"), "remove twice")
	assert.True(t, e.AddEntry(locA, "db", "e1", "back", ""), "re-add after remove")

	recs, next := e.GetUpdates(locA, "db", 0)
	assert.Equal(t, []versioned{{"e1", 3, domain.DispositionAdd}}, summarize(recs))
	assert.Equal(t, uint64(3), next)
}

func TestTombstoneVisibleFromOlderCursor(t *testing.T) {
	e, _ := newEngine(t)
	require.True(t, e.CreateDatabase(locA, "db", "", time.Time{}))
	require.True(t, e.AddEntry(locA, "db", "e1", "x", ""))
	require.True(t, e.AddEntry(locA, "db", "e2", "y", ""))
	require.True(t, e.RemoveEntry(locA, "db", "e1"))

	for _, since := range []uint64{0, 1, 2} {
		recs, next := e.GetUpdates(locA, "db", since)
		require.NotEmpty(t, recs)
		last := recs[len(recs)-1]
		assert.Equal(t, "e1", last.EntryID)
		assert.Equal(t, domain.DispositionRemove, last.Disposition)
		assert.Empty(t, last.Data)
		assert.Equal(t, uint64(3), next)
	}
}

func TestVersionsStrictlyIncrease(t *testing.T) {
	e, _ := newEngine(t)
	require.True(t, e.CreateDatabase(locA, "db", "", time.Time{}))
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		require.True(t, e.AddEntry(locA, "db", id, id, ""))
	}
	for i := 0; i < 5; i++ {
		require.True(t, e.UpdateEntry(locA, "db", ids[i%3], "v"))
	}
	require.True(t, e.RemoveEntry(locA, "db", "b"))

	recs, next := e.GetUpdates(locA, "db", 0)
	var last uint64
	for _, r := range recs {
		assert.Greater(t, r.UpdateVersion, last)
		last = r.UpdateVersion
	}
	assert.Equal(t, uint64(9), next)

	page, cursor := e.GetUpdatesLimit(locA, "db", 0, 2)
	assert.Len(t, page, 2)
	assert.Equal(t, page[1].UpdateVersion, cursor)
}

func TestDatabaseListLog(t *testing.T) {
	e, _ := newEngine(t)
	require.True(t, e.CreateDatabase(locA, "db1", "", time.Time{}))
	require.True(t, e.CreateDatabase(locA, "db2", "", time.Time{}))
	require.True(t, e.UpdateDatabase(locA, "db1", `{"v":2}`, time.Time{}))
	require.True(t, e.DeleteDatabase(locA, "db2"))
	assert.False(t, e.DeleteDatabase(locA, "db2"))
	assert.False(t, e.AddEntry(locA, "db2", "e", "x", ""))

	recs, next := e.DatabaseUpdates(locA, 0)
	require.Len(t, recs, 2)
	assert.Equal(t, "db1", recs[0].DatabaseID)
	assert.Equal(t, uint64(3), recs[0].UpdateVersion)
	assert.Equal(t, "db2", recs[1].DatabaseID)
	assert.Equal(t, domain.DispositionRemove, recs[1].Disposition)
	assert.Equal(t, uint64(4), next)
	assert.Equal(t, uint64(4), e.ListVersion(locA))

	recs, next = e.DatabaseUpdates(locA, 4)
	assert.Empty(t, recs)
	assert.Equal(t, uint64(4), next)
}

func TestExpiryRespectsPins(t *testing.T) {
	e, clock := newEngine(t)
	expires := clock.Now().Add(time.Hour)
	require.True(t, e.CreateDatabase(locA, "db", "", expires))
	require.True(t, e.AddEntry(locA, "db", "e1", "x", ""))

	release := e.Pin(locA, "db")
	require.NotNil(t, release)
	assert.Zero(t, e.Expire(expires))

	release()
	release()
	assert.Equal(t, 1, e.Expire(expires))

	_, ok := e.Database(locA, "db")
	assert.False(t, ok)
	recs, _ := e.GetUpdates(locA, "db", 0)
	assert.Empty(t, recs)

	dbs, _ := e.DatabaseUpdates(locA, 0)
	require.Len(t, dbs, 1)
	assert.Equal(t, domain.DispositionRemove, dbs[0].Disposition)
}

func TestExpiredDatabaseHiddenBeforeCollection(t *testing.T) {
	e, clock := newEngine(t)
	require.True(t, e.CreateDatabase(locA, "db", "", clock.Now().Add(time.Minute)))
	require.True(t, e.AddEntry(locA, "db", "e1", "x", ""))

	clock.Advance(2 * time.Minute)
	recs, _ := e.GetUpdates(locA, "db", 0)
	assert.Empty(t, recs)
	dbs, _ := e.DatabaseUpdates(locA, 0)
	assert.Empty(t, dbs)
}

func TestCreateReplacesExpiredDatabase(t *testing.T) {
	e, clock := newEngine(t)
	require.True(t, e.CreateDatabase(locA, "db", "old", clock.Now().Add(time.Minute)))
	require.True(t, e.AddEntry(locA, "db", "e1", "x", ""))

	clock.Advance(2 * time.Minute)
	require.True(t, e.CreateDatabase(locA, "db", "new", time.Time{}))

	rec, ok := e.Database(locA, "db")
	require.True(t, ok)
	assert.Equal(t, "new", rec.MetaData)
	assert.Equal(t, uint64(3), rec.UpdateVersion)

	recs, _ := e.GetUpdates(locA, "db", 0)
	assert.Empty(t, recs)
	require.True(t, e.AddEntry(locA, "db", "e2", "y", ""))
	recs, _ = e.GetUpdates(locA, "db", 0)
	require.Len(t, recs, 1)
	assert.Equal(t, "e2", recs[0].EntryID)
	assert.Greater(t, recs[0].UpdateVersion, uint64(1))
}

func TestCreateKeepsPinnedExpiredDatabase(t *testing.T) {
	e, clock := newEngine(t)
	require.True(t, e.CreateDatabase(locA, "db", "old", clock.Now().Add(time.Minute)))
	release := e.Pin(locA, "db")
	require.NotNil(t, release)

	clock.Advance(2 * time.Minute)
	assert.False(t, e.CreateDatabase(locA, "db", "new", time.Time{}))

	release()
	assert.True(t, e.CreateDatabase(locA, "db", "new", time.Time{}))
}

func TestDownloadedWatermark(t *testing.T) {
	e, _ := newEngine(t)
	require.True(t, e.CreateDatabase(locA, "db", "", time.Time{}))
	require.True(t, e.SetDownloadedVersion(locA, "db", 5))
	require.True(t, e.SetDownloadedVersion(locA, "db", 3))
	v, ok := e.DownloadedVersion(locA, "db")
	require.True(t, ok)
	assert.Equal(t, uint64(5), v)
	assert.False(t, e.SetDownloadedVersion(locA, "nope", 1))
}

func TestSubscriptionsDeliverDeltas(t *testing.T) {
	e, _ := newEngine(t)
	sq := queue.New("subscriber")
	defer sq.Stop()

	var lists [][]string
	listSub := e.SubscribeList(locA, 0, sq, func(recs []domain.DatabaseRecord, next uint64) {
		var ids []string
		for _, r := range recs {
			ids = append(ids, r.DatabaseID)
		}
		lists = append(lists, ids)
	})
	require.NotNil(t, listSub)
	require.True(t, e.CreateDatabase(locA, "db", "", time.Time{}))

	var batches [][]versioned
	var cursor uint64
	sub := e.SubscribeDatabase(locA, "db", 0, sq, func(recs []domain.EntryRecord, next uint64) {
		batches = append(batches, summarize(recs))
		cursor = next
	})
	require.NotNil(t, sub)
	require.True(t, e.AddEntry(locA, "db", "e1", "x", ""))
	require.True(t, e.AddEntry(locA, "db", "e2", "y", ""))
	sub.Cancel()
	require.True(t, e.AddEntry(locA, "db", "e3", "z", ""))

	sq.Sync(func() {})
	assert.Equal(t, [][]string{{"db"}}, lists)
	assert.Equal(t, [][]versioned{
		{{"e1", 1, domain.DispositionAdd}},
		{{"e2", 2, domain.DispositionAdd}},
	}, batches)
	assert.Equal(t, uint64(2), cursor)

	assert.Nil(t, e.SubscribeDatabase(locA, "missing", 0, sq, func([]domain.EntryRecord, uint64) {}))
}

func TestApplyKeepsRemoteVersions(t *testing.T) {
	e, _ := newEngine(t)
	e.ApplyDatabases(locA, []domain.DatabaseRecord{
		{DatabaseID: "db", Disposition: domain.DispositionAdd, Version: 7, UpdateVersion: 4},
	}, 4)
	assert.Equal(t, uint64(4), e.ListVersion(locA))

	ok := e.ApplyEntries(locA, "db", []domain.EntryRecord{
		{EntryID: "e2", Data: "two", Disposition: domain.DispositionAdd, UpdateVersion: 5},
		{EntryID: "e1", Data: "one", Disposition: domain.DispositionUpdate, UpdateVersion: 7},
	}, 7)
	require.True(t, ok)
	v, _ := e.DownloadedVersion(locA, "db")
	assert.Equal(t, uint64(7), v)

	recs, _ := e.GetUpdates(locA, "db", 0)
	assert.Equal(t, []versioned{
		{"e2", 5, domain.DispositionAdd},
		{"e1", 7, domain.DispositionUpdate},
	}, summarize(recs))

	// Stale replays are ignored.
	require.True(t, e.ApplyEntries(locA, "db", []domain.EntryRecord{{EntryID: "e1", Data: "old", UpdateVersion: 6}}, 6))
	got := e.GetEntries(locA, "db", []string{"e1", "nope"})
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Data)

	e.ApplyDatabases(locA, []domain.DatabaseRecord{{DatabaseID: "db", Disposition: domain.DispositionRemove, UpdateVersion: 9}}, 9)
	_, ok = e.Database(locA, "db")
	assert.False(t, ok)
	assert.False(t, e.ApplyEntries(locA, "db", nil, 10))
}
