package database_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/domain/types"
	"openpeer/internal/message"
	"openpeer/internal/message/database"
	"openpeer/internal/message/info"
)

func roundTrip(t *testing.T, m message.Message) message.Message {
	t.Helper()
	r := message.NewRegistry()
	database.Register(r)
	b, err := message.EncodeBytes(m)
	require.NoError(t, err)
	got := r.Parse(b, "peer://example.com/b")
	require.NotNil(t, got, string(b))
	m.Head().Source = "peer://example.com/b"
	return got
}

var loc = info.LocationInfo{PeerURI: "peer://example.com/a", LocationID: "loc1"}

func TestSubscribeRoundTrip(t *testing.T) {
	req := database.NewSubscribeRequest("example.com")
	req.Location = loc
	req.DatabaseID = "db"
	req.Version = 2
	req.Data = true
	req.Expires = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, req, roundTrip(t, req))
}

func TestEntriesPreserveVersionOrder(t *testing.T) {
	n := database.NewNotify("example.com")
	n.Location = loc
	n.Database = info.DatabaseInfo{ID: "db", Version: 3}
	n.Version = 3
	n.Entries = []info.EntryInfo{
		{ID: "e2", Version: 2, Disposition: types.DispositionAdd, Data: "two"},
		{ID: "e1", Version: 3, Disposition: types.DispositionAdd, Data: `{"one":1}`},
	}
	got := roundTrip(t, n).(*database.EntriesResult)
	assert.Equal(t, n, got)
	assert.Equal(t, "e2", got.Entries[0].ID)
}

func TestListAndDataGetRoundTrip(t *testing.T) {
	req := database.NewListSubscribeRequest("example.com")
	req.Location = loc
	assert.Equal(t, req, roundTrip(t, req))

	res := &database.ListResult{
		Header:   message.ResultHeader(&req.Header),
		Location: loc,
		Version:  4,
		Databases: []info.DatabaseInfo{
			{ID: "db1", Disposition: types.DispositionAdd, MetaData: `{"title":"x"}`, Version: 2, UpdateVersion: 1},
			{ID: "db2", Disposition: types.DispositionRemove, UpdateVersion: 4},
		},
	}
	assert.Equal(t, res, roundTrip(t, res))

	dg := database.NewDataGetRequest("example.com")
	dg.Location = loc
	dg.DatabaseID = "db1"
	dg.EntryIDs = []string{"e1", "e2"}
	assert.Equal(t, dg, roundTrip(t, dg))
}
