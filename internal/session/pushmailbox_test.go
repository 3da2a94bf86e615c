package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/message/pushmailbox"
	"openpeer/internal/services/federation"
	"openpeer/internal/session"
)

func newMailbox(h *harness, grant *session.NamespaceGrant, push info.PushRegistration) *session.PushMailbox {
	return session.NewPushMailbox(session.PushMailboxConfig{
		Config:  h.config(),
		PeerURI: alice,
		Push:    push,
		Grant:   grant,
	})
}

func TestPushMailboxRegistersAndReadsFolders(t *testing.T) {
	h := newHarness(t, withNamespaces(nil, []string{"https://openpeer.org/ns/push"}))
	grant := newGrant(h, h.server.Grantor())
	mb := newMailbox(h, grant, info.PushRegistration{DeviceToken: "device-1", MappedType: "im", Sound: "ping"})

	var log stateLog
	mb.OnState(log.observe)
	changes := make(chan []info.FolderInfo, 4)
	mb.OnChange(func(fs []info.FolderInfo) { changes <- fs })

	grant.Start()
	mb.Start()
	waitState(t, mb.State, session.StateReady)
	assert.Equal(t, []session.State{
		session.StateAccessing,
		session.StateChallengeWait,
		session.StateProofSubmit,
		session.StateRegistering,
		session.StateReady,
	}, log.snapshot())
	assert.False(t, mb.PushExpires().IsZero())
	assert.Zero(t, mb.Pending())

	h.server.Push(alice, federation.DefaultFolder, info.PushMessageInfo{
		ID:       "m1",
		From:     "peer://example.com/bob",
		To:       []string{alice},
		Subject:  "hello",
		MimeType: "text/plain",
	})
	select {
	case fs := <-changes:
		require.Len(t, fs, 1)
		assert.Equal(t, federation.DefaultFolder, fs[0].Name)
		assert.Equal(t, uint64(1), fs[0].Unread)
	case <-time.After(2 * time.Second):
		t.Fatal("no change notify")
	}

	type folders struct {
		version string
		list    []info.FolderInfo
		err     error
	}
	fch := make(chan folders, 1)
	require.NoError(t, mb.FoldersGet("", func(v string, fs []info.FolderInfo, err error) { fch <- folders{v, fs, err} }))
	got := <-fch
	require.NoError(t, got.err)
	assert.Equal(t, "1", got.version)
	require.Len(t, got.list, 1)

	type folder struct {
		f    info.FolderInfo
		msgs []info.PushMessageInfo
		err  error
	}
	mch := make(chan folder, 1)
	require.NoError(t, mb.FolderGet(info.FolderInfo{Name: federation.DefaultFolder, Version: "0"},
		func(f info.FolderInfo, msgs []info.PushMessageInfo, err error) { mch <- folder{f, msgs, err} }))
	fg := <-mch
	require.NoError(t, fg.err)
	require.Len(t, fg.msgs, 1)
	assert.Equal(t, "m1", fg.msgs[0].ID)
	assert.Equal(t, "hello", fg.msgs[0].Subject)
	assert.Equal(t, []string{alice}, fg.msgs[0].To)
}

func TestPushMailboxSkipsRegistrationWithoutToken(t *testing.T) {
	h := newHarness(t)
	mb := newMailbox(h, nil, info.PushRegistration{})
	var log stateLog
	mb.OnState(log.observe)

	assert.ErrorIs(t, mb.FoldersGet("", func(string, []info.FolderInfo, error) {}), session.ErrNotReady)
	mb.Start()
	waitState(t, mb.State, session.StateReady)
	assert.Equal(t, []session.State{session.StateAccessing, session.StateReady}, log.snapshot())
	assert.NotContains(t, h.sentMethods(), pushmailbox.MethodRegisterPush)
}

func TestPushMailboxInvalidPeer(t *testing.T) {
	h := newHarness(t)
	mb := session.NewPushMailbox(session.PushMailboxConfig{Config: h.config(), PeerURI: "not a uri"})
	mb.Start()
	waitState(t, mb.State, session.StateShutdown)
	var merr *message.Error
	require.ErrorAs(t, mb.Err(), &merr)
	assert.Equal(t, message.CodeBadRequest, merr.Code)
}
