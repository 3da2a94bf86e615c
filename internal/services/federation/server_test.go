package federation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/message"
	"openpeer/internal/message/bootstrapper"
	"openpeer/internal/message/info"
	"openpeer/internal/message/lockbox"
	"openpeer/internal/message/rolodex"
	"openpeer/internal/monitor"
	"openpeer/internal/protocol"
	"openpeer/internal/queue"
	"openpeer/internal/relay"
	"openpeer/internal/services/federation"
	"openpeer/internal/session"
)

const testDomain = "example.com"

var services = []info.ServiceInfo{{
	ID:      "lockbox-1",
	Type:    "lockbox",
	Version: "1.0",
	Methods: []info.ServiceMethod{{Name: "lockbox-access", URI: "https://lockbox.example.com/"}},
}}

type client struct {
	d  *monitor.Dispatcher
	ep *relay.Endpoint
}

func newDispatcher(t *testing.T, name string) *monitor.Dispatcher {
	t.Helper()
	q := queue.New(name)
	t.Cleanup(q.Stop)
	return monitor.NewDispatcher(q, protocol.NewRegistry(), monitor.New(q, zerolog.Nop()), zerolog.Nop())
}

func newServer(t *testing.T) *client {
	t.Helper()
	net := relay.NewNetwork()
	sd := newDispatcher(t, "server")
	sep := net.Attach("federation", sd)
	for _, h := range protocol.Handlers() {
		net.Alias(string(h), "federation")
	}
	priv, pub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	srv, err := federation.New(federation.Config{
		Dispatcher:        sd,
		Transport:         sep,
		Domain:            testDomain,
		Signer:            domain.Identity{URI: "peer://example.com/grant-service", EdPub: pub, EdPriv: priv},
		Services:          services,
		LockboxNamespaces: []string{"https://meta.example.com/lockbox"},
		Logger:            zerolog.Nop(),
	})
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Close)

	d := newDispatcher(t, "client")
	return &client{d: d, ep: net.Attach("client", d)}
}

// call sends req to its handler and waits for the result or failure.
func (c *client) call(t *testing.T, req message.Message) (message.Message, error) {
	t.Helper()
	type outcome struct {
		res message.Message
		err error
	}
	done := make(chan outcome, 1)
	c.d.Queue().Sync(func() {
		c.d.Monitor().Monitor(req, time.Second, func(res message.Message, err error) {
			done <- outcome{res, err}
		})
	})
	require.NoError(t, c.ep.Send(context.Background(), string(req.Head().Handler), req))
	select {
	case o := <-done:
		return o.res, o.err
	case <-time.After(2 * time.Second):
		t.Fatal("no result")
		return nil, nil
	}
}

func failureCode(t *testing.T, err error) int {
	t.Helper()
	var me *message.Error
	require.True(t, errors.As(err, &me), "want *message.Error, got %v", err)
	return me.Code
}

func TestServicesGet(t *testing.T) {
	c := newServer(t)
	res, err := c.call(t, bootstrapper.NewServicesGetRequest(testDomain))
	require.NoError(t, err)
	got, ok := res.(*bootstrapper.ServicesGetResult)
	require.True(t, ok)
	assert.Equal(t, services, got.Services)
}

func TestLockboxAccessNeedsIdentity(t *testing.T) {
	c := newServer(t)
	_, err := c.call(t, lockbox.NewAccessRequest(testDomain))
	assert.Equal(t, message.CodeBadRequest, failureCode(t, err))
}

func TestLockboxContentNeedsGrant(t *testing.T) {
	c := newServer(t)
	access := lockbox.NewAccessRequest(testDomain)
	access.Identity = info.IdentityInfo{URI: "peer://example.com/alice", Provider: testDomain}
	res, err := c.call(t, access)
	require.NoError(t, err)
	granted, ok := res.(*lockbox.AccessResult)
	require.True(t, ok)
	require.False(t, granted.Challenge.IsEmpty())
	assert.NotEmpty(t, granted.Lockbox.Key)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	lb := granted.Lockbox
	get := lockbox.NewContentGetRequest(testDomain)
	get.Lockbox = info.LockboxInfo{
		AccountID:                lb.AccountID,
		AccessToken:              lb.AccessToken,
		AccessSecretProof:        session.Proof(lb.AccessSecret, lockbox.MethodContentGet, lb.AccessToken, expires),
		AccessSecretProofExpires: expires,
	}
	get.Content = []info.ContentValue{{Namespace: "https://meta.example.com/lockbox"}}
	_, err = c.call(t, get)
	assert.Equal(t, message.CodeForbidden, failureCode(t, err))

	// A proof bound to another method is refused outright.
	get = lockbox.NewContentGetRequest(testDomain)
	get.Lockbox = info.LockboxInfo{
		AccessToken:              lb.AccessToken,
		AccessSecretProof:        session.Proof(lb.AccessSecret, lockbox.MethodContentSet, lb.AccessToken, expires),
		AccessSecretProofExpires: expires,
	}
	_, err = c.call(t, get)
	assert.Equal(t, message.CodeUnauthorized, failureCode(t, err))
}

func TestRolodexRejectsBadProof(t *testing.T) {
	c := newServer(t)
	req := rolodex.NewAccessRequest(testDomain)
	req.Identity = info.IdentityInfo{URI: "peer://example.com/alice"}
	req.Lockbox = info.LockboxInfo{
		AccessToken:              "nope",
		AccessSecretProof:        "00",
		AccessSecretProofExpires: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	_, err := c.call(t, req)
	assert.Equal(t, message.CodeUnauthorized, failureCode(t, err))
}
