package info

import (
	"time"

	"github.com/beevik/etree"

	"openpeer/internal/domain/types"
	"openpeer/internal/wire"
)

// FolderInfo describes one push-mailbox folder.
type FolderInfo struct {
	Disposition types.Disposition
	Name        string
	RenameTo    string
	Version     string
	Unread      uint64
	Total       uint64
	Updated     time.Time
}

func (f FolderInfo) IsEmpty() bool { return f == FolderInfo{} }

func (f FolderInfo) Encode(parent *etree.Element) {
	if f.IsEmpty() {
		return
	}
	el := parent.CreateElement("folder")
	wire.SetAttr(el, "disposition", f.Disposition.String())
	optText(el, "name", f.Name)
	optText(el, "renameTo", f.RenameTo)
	optText(el, "version", f.Version)
	optUint(el, "unread", f.Unread)
	optUint(el, "total", f.Total)
	optTime(el, "updated", f.Updated)
}

func DecodeFolder(el *etree.Element) FolderInfo {
	if el == nil {
		return FolderInfo{}
	}
	return FolderInfo{
		Disposition: types.ParseDisposition(wire.Attr(el, "disposition")),
		Name:        wire.ChildText(el, "name"),
		RenameTo:    wire.ChildText(el, "renameTo"),
		Version:     wire.ChildText(el, "version"),
		Unread:      wire.ChildUint(el, "unread"),
		Total:       wire.ChildUint(el, "total"),
		Updated:     wire.ChildTime(el, "updated"),
	}
}

func EncodeFolders(parent *etree.Element, fs []FolderInfo) {
	if len(fs) == 0 {
		return
	}
	c := parent.CreateElement("folders")
	for _, f := range fs {
		f.Encode(c)
	}
}

func DecodeFolders(parent *etree.Element) []FolderInfo {
	var out []FolderInfo
	wire.Each(parent, "folders", "folder", func(el *etree.Element) {
		out = append(out, DecodeFolder(el))
	})
	return out
}

// PushMessageInfo is one message stored in a push-mailbox folder. MetaData
// is JSON-encoded on the wire.
type PushMessageInfo struct {
	ID          string
	Disposition types.Disposition
	Version     string
	From        string
	To          []string
	Subject     string
	MimeType    string
	MetaData    string
	Length      uint64
	Sent        time.Time
	Expires     time.Time
}

func (m PushMessageInfo) IsEmpty() bool {
	return m.ID == "" && m.Disposition == "" && m.Version == "" && m.From == "" &&
		len(m.To) == 0 && m.Subject == "" && m.MimeType == "" && m.MetaData == "" &&
		m.Length == 0 && m.Sent.IsZero() && m.Expires.IsZero()
}

func (m PushMessageInfo) Encode(parent *etree.Element) {
	if m.IsEmpty() {
		return
	}
	el := parent.CreateElement("message")
	wire.SetAttr(el, "id", m.ID)
	wire.SetAttr(el, "disposition", m.Disposition.String())
	optText(el, "version", m.Version)
	optText(el, "from", m.From)
	if len(m.To) > 0 {
		wire.Strings(el, "to", "peer", m.To)
	}
	optText(el, "subject", m.Subject)
	optText(el, "mimeType", m.MimeType)
	optJSON(el, "metaData", m.MetaData)
	optUint(el, "length", m.Length)
	optTime(el, "sent", m.Sent)
	optTime(el, "expires", m.Expires)
}

func DecodePushMessage(el *etree.Element) PushMessageInfo {
	if el == nil {
		return PushMessageInfo{}
	}
	return PushMessageInfo{
		ID:          wire.Attr(el, "id"),
		Disposition: types.ParseDisposition(wire.Attr(el, "disposition")),
		Version:     wire.ChildText(el, "version"),
		From:        wire.ChildText(el, "from"),
		To:          wire.ChildStrings(el, "to", "peer"),
		Subject:     wire.ChildText(el, "subject"),
		MimeType:    wire.ChildText(el, "mimeType"),
		MetaData:    wire.ChildJSON(el, "metaData"),
		Length:      wire.ChildUint(el, "length"),
		Sent:        wire.ChildTime(el, "sent"),
		Expires:     wire.ChildTime(el, "expires"),
	}
}

func EncodePushMessages(parent *etree.Element, ms []PushMessageInfo) {
	if len(ms) == 0 {
		return
	}
	c := parent.CreateElement("messages")
	for _, m := range ms {
		m.Encode(c)
	}
}

func DecodePushMessages(parent *etree.Element) []PushMessageInfo {
	var out []PushMessageInfo
	wire.Each(parent, "messages", "message", func(el *etree.Element) {
		out = append(out, DecodePushMessage(el))
	})
	return out
}

// PushRegistration asks the mailbox to deliver change events to a device.
type PushRegistration struct {
	DeviceToken string
	Folder      string
	MappedType  string
	Unread      bool
	Sound       string
	Expires     time.Time
}

func (p PushRegistration) IsEmpty() bool { return p == PushRegistration{} }

func (p PushRegistration) Encode(parent *etree.Element) {
	if p.IsEmpty() {
		return
	}
	el := parent.CreateElement("push")
	optText(el, "deviceToken", p.DeviceToken)
	optText(el, "folder", p.Folder)
	optText(el, "mappedType", p.MappedType)
	optBool(el, "unread", p.Unread)
	optText(el, "sound", p.Sound)
	optTime(el, "expires", p.Expires)
}

func DecodePushRegistration(el *etree.Element) PushRegistration {
	if el == nil {
		return PushRegistration{}
	}
	return PushRegistration{
		DeviceToken: wire.ChildText(el, "deviceToken"),
		Folder:      wire.ChildText(el, "folder"),
		MappedType:  wire.ChildText(el, "mappedType"),
		Unread:      wire.ChildBool(el, "unread"),
		Sound:       wire.ChildText(el, "sound"),
		Expires:     wire.ChildTime(el, "expires"),
	}
}
