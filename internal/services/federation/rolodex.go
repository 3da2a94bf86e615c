package federation

import (
	"strconv"
	"time"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/message/lockbox"
	"openpeer/internal/message/rolodex"
)

const contactsRefresh = time.Hour

func (s *Server) routeRolodex() {
	s.handle(rolodex.Handler, rolodex.MethodAccess, s.rolodexAccess)
	s.handle(rolodex.Handler, rolodex.MethodContactsGet, s.rolodexContacts)
}

// AddContact attaches a contact to the account owning identityURI. It runs
// on the server queue.
func (s *Server) AddContact(identityURI string, c info.ContactInfo) {
	s.q.Post(func() {
		acct, ok := s.byIdentity[identityURI]
		if !ok {
			s.log.Warn().Str("identity", identityURI).Msg("contact for unknown identity dropped")
			return
		}
		acct.contacts = append(acct.contacts, c)
	})
}

// The access request proves the lockbox credentials of the identity's
// account; the proof is bound to rolodex-access.
func (s *Server) rolodexAccess(m message.Message) {
	req, ok := m.(*rolodex.AccessRequest)
	if !ok {
		return
	}
	lb := req.Lockbox
	c, ok := s.authorize(lockbox.Handler, rolodex.MethodAccess, lb.AccessToken, lb.AccessSecretProof, lb.AccessSecretProofExpires)
	if !ok {
		s.failure(&req.Header, message.CodeUnauthorized, "invalid lockbox proof")
		return
	}
	acct := s.accounts[c.owner]
	if acct == nil || !acct.granted {
		s.failure(&req.Header, message.CodeForbidden, "lockbox not granted")
		return
	}
	if _, bound := acct.identities[req.Identity.URI]; !bound {
		s.failure(&req.Header, message.CodeForbidden, "identity not bound to lockbox")
		return
	}
	token, secret, expires, err := s.issue(rolodex.Handler, acct.id)
	if err != nil {
		s.failure(&req.Header, message.CodeInternal, "credential generation failed")
		return
	}
	s.reply(&req.Header, &rolodex.AccessResult{
		Header: message.ResultHeader(&req.Header),
		Access: info.AccessInfo{AccessToken: token, AccessSecret: secret, AccessSecretExpires: expires},
	})
}

func (s *Server) rolodexContacts(m message.Message) {
	req, ok := m.(*rolodex.ContactsGetRequest)
	if !ok {
		return
	}
	acc := req.Access
	c, ok := s.authorize(rolodex.Handler, req.Method, acc.AccessToken, acc.AccessSecretProof, acc.AccessSecretProofExpires)
	if !ok {
		s.failure(&req.Header, message.CodeUnauthorized, "invalid access proof")
		return
	}
	acct := s.accounts[c.owner]
	version := strconv.Itoa(len(acct.contacts))
	res := &rolodex.ContactsGetResult{Header: message.ResultHeader(&req.Header), Version: version}
	if req.Refresh || req.Version != version {
		res.Contacts = acct.contacts
	}
	if req.Refresh {
		res.RefreshTime = s.now().Add(contactsRefresh)
	}
	s.reply(&req.Header, res)
}
