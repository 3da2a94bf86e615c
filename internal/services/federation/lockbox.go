package federation

import (
	"sort"

	"github.com/google/uuid"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/message/lockbox"
)

type account struct {
	id         string
	key        string
	granted    bool
	identities map[string]info.IdentityInfo
	content    map[string]map[string]string
	contacts   []info.ContactInfo
}

func (a *account) identityList() []info.IdentityInfo {
	out := make([]info.IdentityInfo, 0, len(a.identities))
	for _, id := range a.identities {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

func (s *Server) routeLockbox() {
	s.handle(lockbox.Handler, lockbox.MethodAccess, s.lockboxAccess)
	s.handle(lockbox.Handler, lockbox.MethodChallengeValidate, s.lockboxValidate)
	s.handle(lockbox.Handler, lockbox.MethodIdentitiesUpdate, s.lockboxIdentities)
	s.handle(lockbox.Handler, lockbox.MethodContentGet, s.lockboxContentGet)
	s.handle(lockbox.Handler, lockbox.MethodContentSet, s.lockboxContentSet)
}

func (s *Server) lockboxAccess(m message.Message) {
	req, ok := m.(*lockbox.AccessRequest)
	if !ok {
		return
	}
	acct := s.findAccount(req)
	if acct == nil {
		if req.Identity.URI == "" {
			s.failure(&req.Header, message.CodeBadRequest, "identity required")
			return
		}
		key, err := crypto.RandomString(32)
		if err != nil {
			s.failure(&req.Header, message.CodeInternal, "key generation failed")
			return
		}
		acct = &account{
			id:         uuid.NewString(),
			key:        key,
			identities: make(map[string]info.IdentityInfo),
			content:    make(map[string]map[string]string),
		}
		s.accounts[acct.id] = acct
		s.log.Debug().Str("account", acct.id).Str("identity", req.Identity.URI).Msg("lockbox account created")
	}
	if req.Identity.URI != "" {
		s.byIdentity[req.Identity.URI] = acct
	}

	token, secret, expires, err := s.issue(lockbox.Handler, acct.id)
	if err != nil {
		s.failure(&req.Header, message.CodeInternal, "credential generation failed")
		return
	}
	res := lockbox.NewAccessResult(req)
	res.Lockbox = info.LockboxInfo{
		AccountID:           acct.id,
		Domain:              s.cfg.Domain,
		AccessToken:         token,
		AccessSecret:        secret,
		AccessSecretExpires: expires,
		Key:                 acct.key,
	}
	if !acct.granted {
		if len(s.cfg.LockboxNamespaces) == 0 {
			acct.granted = true
		} else {
			res.Challenge = s.challenge(lockbox.Handler, acct.id, "lockbox", s.cfg.LockboxNamespaces)
		}
	}
	s.reply(&req.Header, res)
}

// findAccount resumes by credentials first, then by identity.
func (s *Server) findAccount(req *lockbox.AccessRequest) *account {
	if lb := req.Lockbox; lb.AccessToken != "" {
		if c, ok := s.authorize(lockbox.Handler, lockbox.MethodAccess, lb.AccessToken, lb.AccessSecretProof, lb.AccessSecretProofExpires); ok {
			return s.accounts[c.owner]
		}
	}
	return s.byIdentity[req.Identity.URI]
}

// lockboxAuth resolves the granted account behind a lockbox proof, replying
// with a failure when there is none.
func (s *Server) lockboxAuth(req *message.Header, lb info.LockboxInfo, needGrant bool) *account {
	c, ok := s.authorize(lockbox.Handler, req.Method, lb.AccessToken, lb.AccessSecretProof, lb.AccessSecretProofExpires)
	if !ok {
		s.failure(req, message.CodeUnauthorized, "invalid access proof")
		return nil
	}
	acct := s.accounts[c.owner]
	if acct == nil {
		s.failure(req, message.CodeNotFound, "account not found")
		return nil
	}
	if needGrant && !acct.granted {
		s.failure(req, message.CodeForbidden, "namespaces not granted")
		return nil
	}
	return acct
}

func (s *Server) lockboxValidate(m message.Message) {
	req, ok := m.(*lockbox.ChallengeValidateRequest)
	if !ok {
		return
	}
	acct := s.lockboxAuth(&req.Header, req.Lockbox, false)
	if acct == nil {
		return
	}
	if !s.validate(lockbox.Handler, acct.id, req.Bundles) {
		s.failure(&req.Header, message.CodeForbidden, "challenge not satisfied")
		return
	}
	acct.granted = true
	s.reply(&req.Header, &lockbox.EmptyResult{Header: message.ResultHeader(&req.Header)})
}

func (s *Server) lockboxIdentities(m message.Message) {
	req, ok := m.(*lockbox.IdentitiesUpdateRequest)
	if !ok {
		return
	}
	acct := s.lockboxAuth(&req.Header, req.Lockbox, true)
	if acct == nil {
		return
	}
	now := s.now()
	for _, id := range req.Identities {
		if id.URI == "" {
			continue
		}
		if id.Disposition == domain.DispositionRemove {
			delete(acct.identities, id.URI)
			if s.byIdentity[id.URI] == acct {
				delete(s.byIdentity, id.URI)
			}
			continue
		}
		id.Disposition = domain.DispositionNone
		id.Updated = now
		acct.identities[id.URI] = id
		s.byIdentity[id.URI] = acct
	}
	s.reply(&req.Header, &lockbox.IdentitiesUpdateResult{
		Header:     message.ResultHeader(&req.Header),
		Identities: acct.identityList(),
	})
}

func (s *Server) lockboxContentGet(m message.Message) {
	req, ok := m.(*lockbox.ContentGetRequest)
	if !ok {
		return
	}
	acct := s.lockboxAuth(&req.Header, req.Lockbox, true)
	if acct == nil {
		return
	}
	res := &lockbox.ContentGetResult{Header: message.ResultHeader(&req.Header)}
	for _, want := range req.Content {
		ns := acct.content[want.Namespace]
		if want.Name == "" {
			names := make([]string, 0, len(ns))
			for n := range ns {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				res.Content = append(res.Content, info.ContentValue{Namespace: want.Namespace, Name: n, Value: ns[n]})
			}
			continue
		}
		if v, ok := ns[want.Name]; ok {
			res.Content = append(res.Content, info.ContentValue{Namespace: want.Namespace, Name: want.Name, Value: v})
		}
	}
	s.reply(&req.Header, res)
}

func (s *Server) lockboxContentSet(m message.Message) {
	req, ok := m.(*lockbox.ContentSetRequest)
	if !ok {
		return
	}
	acct := s.lockboxAuth(&req.Header, req.Lockbox, true)
	if acct == nil {
		return
	}
	for _, v := range req.Content {
		if v.Namespace == "" || v.Name == "" {
			s.failure(&req.Header, message.CodeBadRequest, "namespace and name required")
			return
		}
	}
	for _, v := range req.Content {
		ns := acct.content[v.Namespace]
		if v.Value == "" {
			delete(ns, v.Name)
			continue
		}
		if ns == nil {
			ns = make(map[string]string)
			acct.content[v.Namespace] = ns
		}
		ns[v.Name] = v.Value
	}
	s.reply(&req.Header, &lockbox.EmptyResult{Header: message.ResultHeader(&req.Header)})
}
