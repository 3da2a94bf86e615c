package session

import (
	"fmt"
	"time"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/message/pushmailbox"
	"openpeer/internal/observer"
)

// FoldersFunc observes folder changes pushed by the mailbox.
type FoldersFunc func(folders []info.FolderInfo)

// PushMailboxConfig configures a PushMailbox session.
type PushMailboxConfig struct {
	Config
	Agent   info.AgentInfo
	GrantID string
	PeerURI string
	// Push is registered after access when it carries a device token.
	Push  info.PushRegistration
	Grant *NamespaceGrant
}

// PushMailbox opens the push mailbox of a peer.
//
//	Pending -> Accessing -> [ChallengeWait -> ProofSubmit] -> [Registering] -> Ready -> Shutdown
type PushMailbox struct {
	*machine
	pc PushMailboxConfig

	// Guarded by machine.mu.
	access      info.AccessInfo
	pushExpires time.Time

	changes observer.List[FoldersFunc]
}

func NewPushMailbox(cfg PushMailboxConfig) *PushMailbox {
	cfg.Config = cfg.Config.withDefaults(pushmailbox.Handler)
	p := &PushMailbox{
		machine: newMachine("push-mailbox", cfg.Config),
		pc:      cfg,
	}
	p.onShutdown = func(error) { p.changes.Clear() }
	return p
}

// Access returns the access credentials granted by the mailbox.
func (p *PushMailbox) Access() info.AccessInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.access
}

// PushExpires returns when the push registration lapses.
func (p *PushMailbox) PushExpires() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pushExpires
}

// OnChange registers fn for push-mailbox-change notifies received while
// Ready.
func (p *PushMailbox) OnChange(fn FoldersFunc) *observer.Subscription {
	return p.changes.Register(fn)
}

// Start sends push-mailbox-access.
func (p *PushMailbox) Start() {
	p.q.Post(func() {
		if p.State() != StatePending {
			return
		}
		p.route(message.NotifyKey(pushmailbox.Handler, pushmailbox.MethodChange), p.onChange)
		p.setState(StateAccessing)
		req := pushmailbox.NewAccessRequest(p.cfg.Domain)
		req.Agent = p.pc.Agent
		req.GrantID = p.pc.GrantID
		req.PeerURI = p.pc.PeerURI
		p.step(req, p.onAccess)
	})
}

func (p *PushMailbox) onAccess(res message.Message) {
	r, ok := res.(*pushmailbox.AccessResult)
	if !ok {
		p.fail(unexpected(res))
		return
	}
	if r.Access.AccessToken == "" || r.Access.AccessSecret == "" {
		p.fail(fmt.Errorf("%w: push-mailbox-access without credentials", ErrBadResult))
		return
	}
	p.mu.Lock()
	p.access = r.Access
	p.mu.Unlock()

	if r.Challenge.IsEmpty() {
		p.register()
		return
	}
	p.awaitGrant(p.pc.Grant, r.Challenge, func(b info.ChallengeBundle) {
		p.setState(StateProofSubmit)
		req := pushmailbox.NewChallengeValidateRequest(p.cfg.Domain)
		req.Access = p.proof(pushmailbox.MethodChallengeValidate)
		req.Bundles = []info.ChallengeBundle{b}
		p.step(req, func(message.Message) { p.register() })
	})
}

func (p *PushMailbox) register() {
	if p.pc.Push.DeviceToken == "" {
		p.setState(StateReady)
		return
	}
	p.setState(StateRegistering)
	req := pushmailbox.NewRegisterPushRequest(p.cfg.Domain)
	req.Access = p.proof(pushmailbox.MethodRegisterPush)
	req.Push = p.pc.Push
	p.step(req, func(res message.Message) {
		r, ok := res.(*pushmailbox.RegisterPushResult)
		if !ok {
			p.fail(unexpected(res))
			return
		}
		p.mu.Lock()
		p.pushExpires = r.Expires
		p.mu.Unlock()
		p.setState(StateReady)
	})
}

func (p *PushMailbox) proof(method message.Method) info.AccessInfo {
	acc := p.Access()
	expires := p.now().Add(p.cfg.ProofLifetime)
	return info.AccessInfo{
		AccessToken:              acc.AccessToken,
		AccessSecretProof:        Proof(acc.AccessSecret, method, acc.AccessToken, expires),
		AccessSecretProofExpires: expires,
	}
}

func (p *PushMailbox) onChange(msg message.Message) {
	n, ok := msg.(*pushmailbox.ChangeNotify)
	if !ok {
		return
	}
	if s := p.State(); s != StateReady {
		p.log.Warn().Stringer("state", s).Msg("discarding folder change before ready")
		return
	}
	p.changes.Each(func(fn FoldersFunc) { fn(n.Folders) })
}

// FoldersGet lists folders changed since version ("" for all). fn runs on
// the session queue.
func (p *PushMailbox) FoldersGet(version string, fn func(version string, folders []info.FolderInfo, err error)) error {
	if p.State() != StateReady {
		return ErrNotReady
	}
	p.q.Post(func() {
		if p.State() != StateReady {
			fn("", nil, ErrNotReady)
			return
		}
		req := pushmailbox.NewFoldersGetRequest(p.cfg.Domain)
		req.Access = p.proof(pushmailbox.MethodFoldersGet)
		req.Version = version
		p.call(req, func(err error) { fn("", nil, err) }, func(res message.Message, err error) {
			if err != nil {
				fn("", nil, err)
				return
			}
			r, ok := res.(*pushmailbox.FoldersGetResult)
			if !ok {
				fn("", nil, unexpected(res))
				return
			}
			fn(r.Version, r.Folders, nil)
		})
	})
	return nil
}

// FolderGet returns the messages of one folder changed since
// folder.Version.
func (p *PushMailbox) FolderGet(folder info.FolderInfo, fn func(info.FolderInfo, []info.PushMessageInfo, error)) error {
	if p.State() != StateReady {
		return ErrNotReady
	}
	p.q.Post(func() {
		if p.State() != StateReady {
			fn(info.FolderInfo{}, nil, ErrNotReady)
			return
		}
		req := pushmailbox.NewFolderGetRequest(p.cfg.Domain)
		req.Access = p.proof(pushmailbox.MethodFolderGet)
		req.Folder = folder
		p.call(req, func(err error) { fn(info.FolderInfo{}, nil, err) }, func(res message.Message, err error) {
			if err != nil {
				fn(info.FolderInfo{}, nil, err)
				return
			}
			r, ok := res.(*pushmailbox.FolderGetResult)
			if !ok {
				fn(info.FolderInfo{}, nil, unexpected(res))
				return
			}
			fn(r.Folder, r.Messages, nil)
		})
	})
	return nil
}
