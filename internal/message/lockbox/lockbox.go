package lockbox

import (
	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

const Handler message.Handler = "lockbox"

const (
	MethodAccess            message.Method = "lockbox-access"
	MethodChallengeValidate message.Method = "lockbox-namespace-grant-challenge-validate"
	MethodIdentitiesUpdate  message.Method = "lockbox-identities-update"
	MethodContentGet        message.Method = "lockbox-content-get"
	MethodContentSet        message.Method = "lockbox-content-set"
)

const (
	AttrAgent      message.Attribute = "agent"
	AttrGrantID    message.Attribute = "grantID"
	AttrLockbox    message.Attribute = "lockbox"
	AttrIdentity   message.Attribute = "identity"
	AttrIdentities message.Attribute = "identities"
	AttrChallenge  message.Attribute = "challenge"
	AttrBundles    message.Attribute = "bundles"
	AttrContent    message.Attribute = "content"
)

// AccessRequest opens (or creates) the lockbox account of an identity.
type AccessRequest struct {
	message.Header
	Agent    info.AgentInfo
	GrantID  string
	Lockbox  info.LockboxInfo
	Identity info.IdentityInfo
}

func NewAccessRequest(domain string) *AccessRequest {
	return &AccessRequest{Header: message.NewRequestHeader(Handler, MethodAccess, domain)}
}

func (m *AccessRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrAgent:
		return !m.Agent.IsEmpty()
	case AttrGrantID:
		return m.GrantID != ""
	case AttrLockbox:
		return !m.Lockbox.IsEmpty()
	case AttrIdentity:
		return !m.Identity.IsEmpty()
	}
	return false
}

func (m *AccessRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAgent) {
		m.Agent.Encode(root)
	}
	if m.HasAttribute(AttrGrantID) {
		wire.Text(root, "grantID", m.GrantID)
	}
	if m.HasAttribute(AttrLockbox) {
		m.Lockbox.Encode(root)
	}
	if m.HasAttribute(AttrIdentity) {
		m.Identity.Encode(root)
	}
}

// AccessResult returns the account credentials and, when the lockbox
// namespaces have not been granted yet, a challenge to resolve first.
type AccessResult struct {
	message.Header
	Lockbox   info.LockboxInfo
	Challenge info.ChallengeInfo
}

func NewAccessResult(req *AccessRequest) *AccessResult {
	return &AccessResult{Header: message.ResultHeader(&req.Header)}
}

func (m *AccessResult) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrLockbox:
		return !m.Lockbox.IsEmpty()
	case AttrChallenge:
		return !m.Challenge.IsEmpty()
	}
	return false
}

func (m *AccessResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrLockbox) {
		m.Lockbox.Encode(root)
	}
	if m.HasAttribute(AttrChallenge) {
		m.Challenge.Encode(root)
	}
}

// ChallengeValidateRequest submits the signed grant bundles for the
// challenge returned by lockbox-access.
type ChallengeValidateRequest struct {
	message.Header
	Lockbox info.LockboxInfo
	Bundles []info.ChallengeBundle
}

func NewChallengeValidateRequest(domain string) *ChallengeValidateRequest {
	return &ChallengeValidateRequest{Header: message.NewRequestHeader(Handler, MethodChallengeValidate, domain)}
}

func (m *ChallengeValidateRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrLockbox:
		return !m.Lockbox.IsEmpty()
	case AttrBundles:
		return len(m.Bundles) > 0
	}
	return false
}

func (m *ChallengeValidateRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrLockbox) {
		m.Lockbox.Encode(root)
	}
	if m.HasAttribute(AttrBundles) {
		info.EncodeBundles(root, m.Bundles)
	}
}

// IdentitiesUpdateRequest adds or removes identities bound to the lockbox.
type IdentitiesUpdateRequest struct {
	message.Header
	Lockbox    info.LockboxInfo
	Identities []info.IdentityInfo
}

func NewIdentitiesUpdateRequest(domain string) *IdentitiesUpdateRequest {
	return &IdentitiesUpdateRequest{Header: message.NewRequestHeader(Handler, MethodIdentitiesUpdate, domain)}
}

func (m *IdentitiesUpdateRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrLockbox:
		return !m.Lockbox.IsEmpty()
	case AttrIdentities:
		return len(m.Identities) > 0
	}
	return false
}

func (m *IdentitiesUpdateRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrLockbox) {
		m.Lockbox.Encode(root)
	}
	if m.HasAttribute(AttrIdentities) {
		info.EncodeIdentities(root, m.Identities)
	}
}

// IdentitiesUpdateResult lists the identities now bound to the lockbox.
type IdentitiesUpdateResult struct {
	message.Header
	Identities []info.IdentityInfo
}

func (m *IdentitiesUpdateResult) HasAttribute(a message.Attribute) bool {
	return a == AttrIdentities && len(m.Identities) > 0
}

func (m *IdentitiesUpdateResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrIdentities) {
		info.EncodeIdentities(root, m.Identities)
	}
}

// ContentGetRequest reads values; Value is ignored in the request.
type ContentGetRequest struct {
	message.Header
	Lockbox info.LockboxInfo
	Content []info.ContentValue
}

func NewContentGetRequest(domain string) *ContentGetRequest {
	return &ContentGetRequest{Header: message.NewRequestHeader(Handler, MethodContentGet, domain)}
}

func (m *ContentGetRequest) HasAttribute(a message.Attribute) bool {
	return hasLockboxContent(a, m.Lockbox, m.Content)
}

func (m *ContentGetRequest) EncodeBody(root *etree.Element) {
	encodeLockboxContent(root, m, m.Lockbox, m.Content)
}

// ContentGetResult returns the values found.
type ContentGetResult struct {
	message.Header
	Content []info.ContentValue
}

func (m *ContentGetResult) HasAttribute(a message.Attribute) bool {
	return a == AttrContent && len(m.Content) > 0
}

func (m *ContentGetResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrContent) {
		info.EncodeContent(root, m.Content)
	}
}

// ContentSetRequest writes values; an empty Value deletes the name.
type ContentSetRequest struct {
	message.Header
	Lockbox info.LockboxInfo
	Content []info.ContentValue
}

func NewContentSetRequest(domain string) *ContentSetRequest {
	return &ContentSetRequest{Header: message.NewRequestHeader(Handler, MethodContentSet, domain)}
}

func (m *ContentSetRequest) HasAttribute(a message.Attribute) bool {
	return hasLockboxContent(a, m.Lockbox, m.Content)
}

func (m *ContentSetRequest) EncodeBody(root *etree.Element) {
	encodeLockboxContent(root, m, m.Lockbox, m.Content)
}

func hasLockboxContent(a message.Attribute, lb info.LockboxInfo, content []info.ContentValue) bool {
	switch a {
	case AttrLockbox:
		return !lb.IsEmpty()
	case AttrContent:
		return len(content) > 0
	}
	return false
}

func encodeLockboxContent(root *etree.Element, m message.Attributed, lb info.LockboxInfo, content []info.ContentValue) {
	if m.HasAttribute(AttrLockbox) {
		lb.Encode(root)
	}
	if m.HasAttribute(AttrContent) {
		info.EncodeContent(root, content)
	}
}
