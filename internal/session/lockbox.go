package session

import (
	"fmt"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/message/lockbox"
)

const lockboxKeyInfo = "openpeer lockbox key"

// LockboxConfig configures a Lockbox session.
type LockboxConfig struct {
	Config
	Agent    info.AgentInfo
	GrantID  string
	Identity info.IdentityInfo
	// Identities are bound to the lockbox once access is granted. When
	// empty, Identity is added.
	Identities []info.IdentityInfo
	Grant      *NamespaceGrant
	// Resume carries the credentials of an earlier login; the access
	// request then proves them instead of starting a new account.
	Resume info.LockboxInfo
}

// Lockbox opens the account lockbox.
//
//	Pending -> Accessing -> [ChallengeWait -> ProofSubmit] -> IdentitiesUpdate -> Ready -> Shutdown
type Lockbox struct {
	*machine
	lc LockboxConfig

	// Guarded by machine.mu.
	account    info.LockboxInfo
	key        []byte
	identities []info.IdentityInfo
}

func NewLockbox(cfg LockboxConfig) *Lockbox {
	cfg.Config = cfg.Config.withDefaults(lockbox.Handler)
	return &Lockbox{
		machine: newMachine("lockbox", cfg.Config),
		lc:      cfg,
	}
}

// Account returns the lockbox credentials granted so far.
func (l *Lockbox) Account() info.LockboxInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account
}

// Key returns the lockbox key derived from the service's key material, or
// nil when the service supplied none.
func (l *Lockbox) Key() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.key
}

// Identities returns the identities bound to the lockbox.
func (l *Lockbox) Identities() []info.IdentityInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.identities
}

// Start sends lockbox-access.
func (l *Lockbox) Start() {
	l.q.Post(func() {
		if l.State() != StatePending {
			return
		}
		l.setState(StateAccessing)
		req := lockbox.NewAccessRequest(l.cfg.Domain)
		req.Agent = l.lc.Agent
		req.GrantID = l.lc.GrantID
		req.Identity = l.lc.Identity
		if l.lc.Resume.AccessToken != "" {
			l.mu.Lock()
			l.account = l.lc.Resume
			l.mu.Unlock()
			req.Lockbox = l.proof(lockbox.MethodAccess)
		}
		l.step(req, l.onAccess)
	})
}

func (l *Lockbox) onAccess(res message.Message) {
	r, ok := res.(*lockbox.AccessResult)
	if !ok {
		l.fail(unexpected(res))
		return
	}
	if r.Lockbox.AccessToken == "" || r.Lockbox.AccessSecret == "" {
		l.fail(fmt.Errorf("%w: lockbox-access without credentials", ErrBadResult))
		return
	}
	var key []byte
	if r.Lockbox.Key != "" {
		k, err := crypto.DeriveKey([]byte(r.Lockbox.Key), []byte(r.Lockbox.AccountID), lockboxKeyInfo, 32)
		if err != nil {
			l.fail(fmt.Errorf("derive lockbox key: %w", err))
			return
		}
		key = k
	}
	l.mu.Lock()
	l.account = r.Lockbox
	l.key = key
	l.mu.Unlock()

	if r.Challenge.IsEmpty() {
		l.updateIdentities()
		return
	}
	l.awaitGrant(l.lc.Grant, r.Challenge, l.submitProof)
}

func (l *Lockbox) submitProof(b info.ChallengeBundle) {
	l.setState(StateProofSubmit)
	req := lockbox.NewChallengeValidateRequest(l.cfg.Domain)
	req.Lockbox = l.proof(lockbox.MethodChallengeValidate)
	req.Bundles = []info.ChallengeBundle{b}
	l.step(req, func(message.Message) { l.updateIdentities() })
}

func (l *Lockbox) updateIdentities() {
	ids := l.lc.Identities
	if len(ids) == 0 && !l.lc.Identity.IsEmpty() {
		id := l.lc.Identity
		id.Disposition = domain.DispositionAdd
		ids = []info.IdentityInfo{id}
	}
	l.setState(StateIdentitiesUpdate)
	if len(ids) == 0 {
		l.setState(StateReady)
		return
	}
	req := lockbox.NewIdentitiesUpdateRequest(l.cfg.Domain)
	req.Lockbox = l.proof(lockbox.MethodIdentitiesUpdate)
	req.Identities = ids
	l.step(req, func(res message.Message) {
		r, ok := res.(*lockbox.IdentitiesUpdateResult)
		if !ok {
			l.fail(unexpected(res))
			return
		}
		l.mu.Lock()
		l.identities = r.Identities
		l.mu.Unlock()
		l.setState(StateReady)
	})
}

func (l *Lockbox) proof(method message.Method) info.LockboxInfo {
	acct := l.Account()
	expires := l.now().Add(l.cfg.ProofLifetime)
	return info.LockboxInfo{
		AccountID:                acct.AccountID,
		Domain:                   l.cfg.Domain,
		AccessToken:              acct.AccessToken,
		AccessSecretProof:        Proof(acct.AccessSecret, method, acct.AccessToken, expires),
		AccessSecretProofExpires: expires,
	}
}

// GetContent reads lockbox values. It fails with ErrNotReady unless the
// session is Ready; fn runs on the session queue.
func (l *Lockbox) GetContent(values []info.ContentValue, fn func([]info.ContentValue, error)) error {
	if l.State() != StateReady {
		return ErrNotReady
	}
	l.q.Post(func() {
		if l.State() != StateReady {
			fn(nil, ErrNotReady)
			return
		}
		req := lockbox.NewContentGetRequest(l.cfg.Domain)
		req.Lockbox = l.proof(lockbox.MethodContentGet)
		req.Content = values
		l.call(req, func(err error) { fn(nil, err) }, func(res message.Message, err error) {
			if err != nil {
				fn(nil, err)
				return
			}
			r, ok := res.(*lockbox.ContentGetResult)
			if !ok {
				fn(nil, unexpected(res))
				return
			}
			fn(r.Content, nil)
		})
	})
	return nil
}

// SetContent writes lockbox values; an empty value deletes the name.
func (l *Lockbox) SetContent(values []info.ContentValue, fn func(error)) error {
	if l.State() != StateReady {
		return ErrNotReady
	}
	l.q.Post(func() {
		if l.State() != StateReady {
			fn(ErrNotReady)
			return
		}
		req := lockbox.NewContentSetRequest(l.cfg.Domain)
		req.Lockbox = l.proof(lockbox.MethodContentSet)
		req.Content = values
		l.call(req, fn, func(_ message.Message, err error) { fn(err) })
	})
	return nil
}
