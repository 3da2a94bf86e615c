// Package rolodex holds the messages of the rolodex service, which returns
// the contacts associated with an identity.
package rolodex

import (
	"time"

	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

const Handler message.Handler = "rolodex"

const (
	MethodAccess      message.Method = "rolodex-access"
	MethodContactsGet message.Method = "rolodex-contacts-get"
)

// AccessTag is the element carrying rolodex credentials.
const AccessTag = "rolodex"

const (
	AttrIdentity message.Attribute = "identity"
	AttrLockbox  message.Attribute = "lockbox"
	AttrAccess   message.Attribute = "access"
	AttrVersion  message.Attribute = "version"
	AttrRefresh  message.Attribute = "refresh"
	AttrContacts message.Attribute = "contacts"
)

// AccessRequest proves lockbox access for an identity and asks for rolodex
// credentials.
type AccessRequest struct {
	message.Header
	Identity info.IdentityInfo
	Lockbox  info.LockboxInfo
}

func NewAccessRequest(domain string) *AccessRequest {
	return &AccessRequest{Header: message.NewRequestHeader(Handler, MethodAccess, domain)}
}

func (m *AccessRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrIdentity:
		return !m.Identity.IsEmpty()
	case AttrLockbox:
		return !m.Lockbox.IsEmpty()
	}
	return false
}

func (m *AccessRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrIdentity) {
		m.Identity.Encode(root)
	}
	if m.HasAttribute(AttrLockbox) {
		m.Lockbox.Encode(root)
	}
}

type AccessResult struct {
	message.Header
	Access info.AccessInfo
}

func (m *AccessResult) HasAttribute(a message.Attribute) bool {
	return a == AttrAccess && !m.Access.IsEmpty()
}

func (m *AccessResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAccess) {
		m.Access.Encode(root, AccessTag)
	}
}

// ContactsGetRequest fetches contacts changed since Version. Refresh asks
// the service to re-download from the identity provider first.
type ContactsGetRequest struct {
	message.Header
	Access  info.AccessInfo
	Version string
	Refresh bool
}

func NewContactsGetRequest(domain string) *ContactsGetRequest {
	return &ContactsGetRequest{Header: message.NewRequestHeader(Handler, MethodContactsGet, domain)}
}

func (m *ContactsGetRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrAccess:
		return !m.Access.IsEmpty()
	case AttrVersion:
		return m.Version != ""
	case AttrRefresh:
		return m.Refresh
	}
	return false
}

func (m *ContactsGetRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAccess) {
		m.Access.Encode(root, AccessTag)
	}
	if m.HasAttribute(AttrVersion) {
		wire.Text(root, "version", m.Version)
	}
	if m.HasAttribute(AttrRefresh) {
		wire.Bool(root, "refresh", true)
	}
}

type ContactsGetResult struct {
	message.Header
	Version     string
	Contacts    []info.ContactInfo
	RefreshTime time.Time
}

func (m *ContactsGetResult) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrVersion:
		return m.Version != ""
	case AttrContacts:
		return len(m.Contacts) > 0
	case AttrRefresh:
		return !m.RefreshTime.IsZero()
	}
	return false
}

func (m *ContactsGetResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrVersion) {
		wire.Text(root, "version", m.Version)
	}
	if m.HasAttribute(AttrContacts) {
		info.EncodeContacts(root, m.Contacts)
	}
	if m.HasAttribute(AttrRefresh) {
		wire.Time(root, "refresh", m.RefreshTime)
	}
}

// Register installs the rolodex decoders.
func Register(r *message.Registry) {
	r.Register(message.RequestKey(Handler, MethodAccess), func(h message.Header, root *etree.Element) message.Message {
		return &AccessRequest{
			Header:   h,
			Identity: info.DecodeIdentity(wire.Child(root, "identity")),
			Lockbox:  info.DecodeLockbox(wire.Child(root, "lockbox")),
		}
	})
	r.Register(message.ResultKey(Handler, MethodAccess), func(h message.Header, root *etree.Element) message.Message {
		return &AccessResult{Header: h, Access: info.DecodeAccess(wire.Child(root, AccessTag))}
	})
	r.Register(message.RequestKey(Handler, MethodContactsGet), func(h message.Header, root *etree.Element) message.Message {
		return &ContactsGetRequest{
			Header:  h,
			Access:  info.DecodeAccess(wire.Child(root, AccessTag)),
			Version: wire.ChildText(root, "version"),
			Refresh: wire.ChildBool(root, "refresh"),
		}
	})
	r.Register(message.ResultKey(Handler, MethodContactsGet), func(h message.Header, root *etree.Element) message.Message {
		return &ContactsGetResult{
			Header:      h,
			Version:     wire.ChildText(root, "version"),
			Contacts:    info.DecodeContacts(root),
			RefreshTime: wire.ChildTime(root, "refresh"),
		}
	})
}

var (
	_ message.Message = (*AccessRequest)(nil)
	_ message.Message = (*AccessResult)(nil)
	_ message.Message = (*ContactsGetRequest)(nil)
	_ message.Message = (*ContactsGetResult)(nil)
)
