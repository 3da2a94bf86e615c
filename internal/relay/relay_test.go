package relay_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/message"
	"openpeer/internal/message/bootstrapper"
	"openpeer/internal/message/database"
	"openpeer/internal/message/info"
	"openpeer/internal/relay"
)

type recorder struct {
	mu   sync.Mutex
	got  [][]byte
	from []string
	seen chan struct{}
}

func newRecorder() *recorder { return &recorder{seen: make(chan struct{}, 16)} }

func (r *recorder) Deliver(b []byte, source string) {
	r.mu.Lock()
	r.got = append(r.got, b)
	r.from = append(r.from, source)
	r.mu.Unlock()
	r.seen <- struct{}{}
}

// echo answers every services-get request through the server.
type echo struct {
	reg *message.Registry
	srv *relay.Server
}

func (e *echo) Deliver(b []byte, source string) {
	req, ok := e.reg.Parse(b, source).(*bootstrapper.ServicesGetRequest)
	if !ok {
		return
	}
	res := bootstrapper.NewServicesGetResult(req)
	res.Services = []info.ServiceInfo{{Type: "lockbox"}}
	go func() { _ = e.srv.Send(context.Background(), source, res) }()
}

func TestHTTPRoundTrip(t *testing.T) {
	reg := message.NewRegistry()
	bootstrapper.Register(reg)

	e := &echo{reg: reg}
	srv := relay.NewServer(e, time.Second, zerolog.Nop())
	e.srv = srv
	ts := httptest.NewServer(srv)
	defer ts.Close()

	rec := newRecorder()
	client := relay.NewHTTP(rec)
	client.SetRoute(string(bootstrapper.Handler), ts.URL)

	req := bootstrapper.NewServicesGetRequest("example.com")
	require.NoError(t, client.Send(context.Background(), "bootstrapper", req))

	require.Len(t, rec.got, 1)
	res, ok := reg.Parse(rec.got[0], rec.from[0]).(*bootstrapper.ServicesGetResult)
	require.True(t, ok)
	assert.Equal(t, req.ID, res.ID)
	assert.Equal(t, "bootstrapper", res.Source)
}

func TestHTTPNoRoute(t *testing.T) {
	client := relay.NewHTTP(newRecorder())
	err := client.Send(context.Background(), "nowhere", bootstrapper.NewServicesGetRequest("x"))
	assert.True(t, errors.Is(err, relay.ErrNoRoute))
}

func TestServerWithoutReplyAnswersNoContent(t *testing.T) {
	srv := relay.NewServer(newRecorder(), 50*time.Millisecond, zerolog.Nop())
	ts := httptest.NewServer(srv)
	defer ts.Close()

	rec := newRecorder()
	client := relay.NewHTTP(rec)
	require.NoError(t, client.Send(context.Background(), ts.URL, bootstrapper.NewServicesGetRequest("x")))
	assert.Empty(t, rec.got)

	assert.ErrorIs(t, srv.Send(context.Background(), "peer://x/y", bootstrapper.NewServicesGetRequest("x")), relay.ErrNoRoute)
}

func TestServerAcknowledgesNotifyAtOnce(t *testing.T) {
	svc := newRecorder()
	srv := relay.NewServer(svc, time.Minute, zerolog.Nop())
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := relay.NewHTTP(newRecorder())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Send(ctx, ts.URL, database.NewNotify("example.com")))
	<-svc.seen
	require.Len(t, svc.got, 1)
	assert.Equal(t, message.KindNotify, message.PeekKind(svc.got[0]))
}

func TestNetworkAliasesAndDrops(t *testing.T) {
	n := relay.NewNetwork()
	svc := newRecorder()
	n.Attach("services", svc)
	n.Alias("bootstrapper", "services")
	client := n.Attach("client", newRecorder())

	require.NoError(t, client.Send(context.Background(), "bootstrapper", bootstrapper.NewServicesGetRequest("x")))
	<-svc.seen
	assert.Equal(t, []string{"client"}, svc.from)

	n.SetDrop(func(from, to string, m message.Message) bool { return true })
	require.NoError(t, client.Send(context.Background(), "services", bootstrapper.NewServicesGetRequest("x")))
	assert.Len(t, svc.got, 1)

	err := client.Send(context.Background(), "missing", bootstrapper.NewServicesGetRequest("x"))
	assert.ErrorIs(t, err, relay.ErrNoRoute)
}
