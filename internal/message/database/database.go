package database

import (
	"time"

	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

const Handler message.Handler = "location-database"

const (
	MethodListSubscribe message.Method = "list-subscribe"
	MethodListNotify    message.Method = "list-notify"
	MethodSubscribe     message.Method = "subscribe"
	MethodNotify        message.Method = "notify"
	MethodDataGet       message.Method = "data-get"
)

const (
	AttrLocation  message.Attribute = "location"
	AttrDatabase  message.Attribute = "database"
	AttrDatabases message.Attribute = "databases"
	AttrEntries   message.Attribute = "entries"
	AttrEntryIDs  message.Attribute = "entryIDs"
	AttrVersion   message.Attribute = "version"
	AttrExpires   message.Attribute = "expires"
	AttrData      message.Attribute = "data"
)

// ListSubscribeRequest subscribes to the database list of a location from
// list version Version. An Expires at or before the current time cancels
// the subscription.
type ListSubscribeRequest struct {
	message.Header
	Location info.LocationInfo
	Version  uint64
	Expires  time.Time
}

func NewListSubscribeRequest(domain string) *ListSubscribeRequest {
	return &ListSubscribeRequest{Header: message.NewRequestHeader(Handler, MethodListSubscribe, domain)}
}

func (m *ListSubscribeRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrLocation:
		return !m.Location.IsEmpty()
	case AttrVersion:
		return m.Version != 0
	case AttrExpires:
		return !m.Expires.IsZero()
	}
	return false
}

func (m *ListSubscribeRequest) EncodeBody(root *etree.Element) {
	encodeCommon(root, m, m.Location, m.Version, m.Expires)
}

// ListResult carries database descriptors changed after the requested list
// version and the version to resume from. It is the body of both the
// list-subscribe result and the list-notify notify.
type ListResult struct {
	message.Header
	Location  info.LocationInfo
	Version   uint64
	Expires   time.Time
	Databases []info.DatabaseInfo
}

// NewListNotify starts an unsolicited list change.
func NewListNotify(domain string) *ListResult {
	return &ListResult{Header: message.NotifyHeader(Handler, MethodListNotify, domain)}
}

func (m *ListResult) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrLocation:
		return !m.Location.IsEmpty()
	case AttrVersion:
		return m.Version != 0
	case AttrExpires:
		return !m.Expires.IsZero()
	case AttrDatabases:
		return len(m.Databases) > 0
	}
	return false
}

func (m *ListResult) EncodeBody(root *etree.Element) {
	encodeCommon(root, m, m.Location, m.Version, m.Expires)
	if m.HasAttribute(AttrDatabases) {
		info.EncodeDatabases(root, m.Databases)
	}
}

// SubscribeRequest subscribes to one database from entry version Version.
// Data asks for entry payloads to be included.
type SubscribeRequest struct {
	message.Header
	Location   info.LocationInfo
	DatabaseID string
	Version    uint64
	Expires    time.Time
	Data       bool
}

func NewSubscribeRequest(domain string) *SubscribeRequest {
	return &SubscribeRequest{Header: message.NewRequestHeader(Handler, MethodSubscribe, domain)}
}

func (m *SubscribeRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrLocation:
		return !m.Location.IsEmpty()
	case AttrDatabase:
		return m.DatabaseID != ""
	case AttrVersion:
		return m.Version != 0
	case AttrExpires:
		return !m.Expires.IsZero()
	case AttrData:
		return m.Data
	}
	return false
}

func (m *SubscribeRequest) EncodeBody(root *etree.Element) {
	encodeCommon(root, m, m.Location, m.Version, m.Expires)
	if m.HasAttribute(AttrDatabase) {
		wire.Text(root, "databaseID", m.DatabaseID)
	}
	if m.HasAttribute(AttrData) {
		wire.Bool(root, "data", true)
	}
}

// EntriesResult carries entries of one database changed after the requested
// version, in ascending version order. It is the body of both the subscribe
// result and the notify notify.
type EntriesResult struct {
	message.Header
	Location info.LocationInfo
	Database info.DatabaseInfo
	Version  uint64
	Expires  time.Time
	Entries  []info.EntryInfo
}

// NewNotify starts an unsolicited database change.
func NewNotify(domain string) *EntriesResult {
	return &EntriesResult{Header: message.NotifyHeader(Handler, MethodNotify, domain)}
}

func (m *EntriesResult) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrLocation:
		return !m.Location.IsEmpty()
	case AttrDatabase:
		return !m.Database.IsEmpty()
	case AttrVersion:
		return m.Version != 0
	case AttrExpires:
		return !m.Expires.IsZero()
	case AttrEntries:
		return len(m.Entries) > 0
	}
	return false
}

func (m *EntriesResult) EncodeBody(root *etree.Element) {
	encodeCommon(root, m, m.Location, m.Version, m.Expires)
	if m.HasAttribute(AttrDatabase) {
		m.Database.Encode(root)
	}
	if m.HasAttribute(AttrEntries) {
		info.EncodeEntries(root, m.Entries)
	}
}

// DataGetRequest fetches full entries by id.
type DataGetRequest struct {
	message.Header
	Location   info.LocationInfo
	DatabaseID string
	EntryIDs   []string
}

func NewDataGetRequest(domain string) *DataGetRequest {
	return &DataGetRequest{Header: message.NewRequestHeader(Handler, MethodDataGet, domain)}
}

func (m *DataGetRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrLocation:
		return !m.Location.IsEmpty()
	case AttrDatabase:
		return m.DatabaseID != ""
	case AttrEntryIDs:
		return len(m.EntryIDs) > 0
	}
	return false
}

func (m *DataGetRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrLocation) {
		m.Location.Encode(root)
	}
	if m.HasAttribute(AttrDatabase) {
		wire.Text(root, "databaseID", m.DatabaseID)
	}
	if m.HasAttribute(AttrEntryIDs) {
		wire.Strings(root, "entryIDs", "entryID", m.EntryIDs)
	}
}

func encodeCommon(root *etree.Element, m message.Attributed, loc info.LocationInfo, version uint64, expires time.Time) {
	if m.HasAttribute(AttrLocation) {
		loc.Encode(root)
	}
	if m.HasAttribute(AttrVersion) {
		wire.Uint(root, "version", version)
	}
	if m.HasAttribute(AttrExpires) {
		wire.Time(root, "expires", expires)
	}
}
