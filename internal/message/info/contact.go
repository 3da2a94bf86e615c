package info

import (
	"time"

	"github.com/beevik/etree"

	"openpeer/internal/domain/types"
	"openpeer/internal/wire"
)

// ContactInfo is one rolodex contact.
type ContactInfo struct {
	Disposition types.Disposition
	URI         string
	Provider    string
	Name        string
	ProfileURL  string
	PeerURI     string
	Priority    uint64
	Weight      uint64
	Updated     time.Time
}

func (c ContactInfo) IsEmpty() bool { return c == ContactInfo{} }

func (c ContactInfo) Encode(parent *etree.Element) {
	if c.IsEmpty() {
		return
	}
	el := parent.CreateElement("identity")
	wire.SetAttr(el, "disposition", c.Disposition.String())
	optText(el, "uri", c.URI)
	optText(el, "provider", c.Provider)
	optText(el, "name", c.Name)
	optText(el, "profile", c.ProfileURL)
	optText(el, "contact", c.PeerURI)
	optUint(el, "priority", c.Priority)
	optUint(el, "weight", c.Weight)
	optTime(el, "updated", c.Updated)
}

func DecodeContact(el *etree.Element) ContactInfo {
	if el == nil {
		return ContactInfo{}
	}
	return ContactInfo{
		Disposition: types.ParseDisposition(wire.Attr(el, "disposition")),
		URI:         wire.ChildText(el, "uri"),
		Provider:    wire.ChildText(el, "provider"),
		Name:        wire.ChildText(el, "name"),
		ProfileURL:  wire.ChildText(el, "profile"),
		PeerURI:     wire.ChildText(el, "contact"),
		Priority:    wire.ChildUint(el, "priority"),
		Weight:      wire.ChildUint(el, "weight"),
		Updated:     wire.ChildTime(el, "updated"),
	}
}

func EncodeContacts(parent *etree.Element, cs []ContactInfo) {
	if len(cs) == 0 {
		return
	}
	c := parent.CreateElement("identities")
	for _, ct := range cs {
		ct.Encode(c)
	}
}

func DecodeContacts(parent *etree.Element) []ContactInfo {
	var out []ContactInfo
	wire.Each(parent, "identities", "identity", func(el *etree.Element) {
		out = append(out, DecodeContact(el))
	})
	return out
}

// ContentValue is one named value stored in a lockbox namespace. Value is
// JSON-encoded on the wire.
type ContentValue struct {
	Namespace string
	Name      string
	Value     string
}

func (v ContentValue) Encode(parent *etree.Element) {
	el := parent.CreateElement("value")
	wire.SetAttr(el, "namespace", v.Namespace)
	wire.SetAttr(el, "name", v.Name)
	optJSON(el, "data", v.Value)
}

func DecodeContentValue(el *etree.Element) ContentValue {
	if el == nil {
		return ContentValue{}
	}
	return ContentValue{
		Namespace: wire.Attr(el, "namespace"),
		Name:      wire.Attr(el, "name"),
		Value:     wire.ChildJSON(el, "data"),
	}
}

func EncodeContent(parent *etree.Element, vs []ContentValue) {
	if len(vs) == 0 {
		return
	}
	c := parent.CreateElement("content")
	for _, v := range vs {
		v.Encode(c)
	}
}

func DecodeContent(parent *etree.Element) []ContentValue {
	var out []ContentValue
	wire.Each(parent, "content", "value", func(el *etree.Element) {
		out = append(out, DecodeContentValue(el))
	})
	return out
}
