package pushmailbox

import (
	"time"

	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

const Handler message.Handler = "push-mailbox"

const (
	MethodAccess            message.Method = "push-mailbox-access"
	MethodChallengeValidate message.Method = "push-mailbox-namespace-grant-challenge-validate"
	MethodRegisterPush      message.Method = "push-mailbox-register-push"
	MethodFoldersGet        message.Method = "push-mailbox-folders-get"
	MethodFolderGet         message.Method = "push-mailbox-folder-get"
	MethodChange            message.Method = "push-mailbox-change"
)

// AccessTag is the element carrying push-mailbox credentials.
const AccessTag = "pushMailbox"

const (
	AttrAgent     message.Attribute = "agent"
	AttrGrantID   message.Attribute = "grantID"
	AttrPeerURI   message.Attribute = "peerURI"
	AttrAccess    message.Attribute = "access"
	AttrChallenge message.Attribute = "challenge"
	AttrBundles   message.Attribute = "bundles"
	AttrPush      message.Attribute = "push"
	AttrExpires   message.Attribute = "expires"
	AttrVersion   message.Attribute = "version"
	AttrFolders   message.Attribute = "folders"
	AttrFolder    message.Attribute = "folder"
	AttrMessages  message.Attribute = "messages"
)

type AccessRequest struct {
	message.Header
	Agent   info.AgentInfo
	GrantID string
	PeerURI string
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
	case AttrPeerURI:
		return m.PeerURI != ""
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
	if m.HasAttribute(AttrPeerURI) {
		wire.Text(root, "peer", m.PeerURI)
	}
}

type AccessResult struct {
	message.Header
	Access    info.AccessInfo
	Challenge info.ChallengeInfo
}

func NewAccessResult(req *AccessRequest) *AccessResult {
	return &AccessResult{Header: message.ResultHeader(&req.Header)}
}

func (m *AccessResult) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrAccess:
		return !m.Access.IsEmpty()
	case AttrChallenge:
		return !m.Challenge.IsEmpty()
	}
	return false
}

func (m *AccessResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAccess) {
		m.Access.Encode(root, AccessTag)
	}
	if m.HasAttribute(AttrChallenge) {
		m.Challenge.Encode(root)
	}
}

type ChallengeValidateRequest struct {
	message.Header
	Access  info.AccessInfo
	Bundles []info.ChallengeBundle
}

func NewChallengeValidateRequest(domain string) *ChallengeValidateRequest {
	return &ChallengeValidateRequest{Header: message.NewRequestHeader(Handler, MethodChallengeValidate, domain)}
}

func (m *ChallengeValidateRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrAccess:
		return !m.Access.IsEmpty()
	case AttrBundles:
		return len(m.Bundles) > 0
	}
	return false
}

func (m *ChallengeValidateRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAccess) {
		m.Access.Encode(root, AccessTag)
	}
	if m.HasAttribute(AttrBundles) {
		info.EncodeBundles(root, m.Bundles)
	}
}

type RegisterPushRequest struct {
	message.Header
	Access info.AccessInfo
	Push   info.PushRegistration
}

func NewRegisterPushRequest(domain string) *RegisterPushRequest {
	return &RegisterPushRequest{Header: message.NewRequestHeader(Handler, MethodRegisterPush, domain)}
}

func (m *RegisterPushRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrAccess:
		return !m.Access.IsEmpty()
	case AttrPush:
		return !m.Push.IsEmpty()
	}
	return false
}

func (m *RegisterPushRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAccess) {
		m.Access.Encode(root, AccessTag)
	}
	if m.HasAttribute(AttrPush) {
		m.Push.Encode(root)
	}
}

// RegisterPushResult carries the expiry the service granted.
type RegisterPushResult struct {
	message.Header
	Expires time.Time
}

func (m *RegisterPushResult) HasAttribute(a message.Attribute) bool {
	return a == AttrExpires && !m.Expires.IsZero()
}

func (m *RegisterPushResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrExpires) {
		wire.Time(root, "expires", m.Expires)
	}
}

// EmptyResult acknowledges a request that returns no data.
type EmptyResult struct {
	message.Header
}

func (m *EmptyResult) HasAttribute(message.Attribute) bool { return false }
func (m *EmptyResult) EncodeBody(*etree.Element)           {}
