package info

import (
	"time"

	"github.com/beevik/etree"

	"openpeer/internal/domain/types"
	"openpeer/internal/wire"
)

// AgentInfo describes the client application to services.
type AgentInfo struct {
	UserAgent string
	Name      string
	Image     string
	URL       string
}

func (a AgentInfo) IsEmpty() bool { return a == AgentInfo{} }

func (a AgentInfo) Encode(parent *etree.Element) {
	if a.IsEmpty() {
		return
	}
	el := parent.CreateElement("agent")
	optText(el, "userAgent", a.UserAgent)
	optText(el, "name", a.Name)
	optText(el, "image", a.Image)
	optText(el, "url", a.URL)
}

func DecodeAgent(el *etree.Element) AgentInfo {
	if el == nil {
		return AgentInfo{}
	}
	return AgentInfo{
		UserAgent: wire.ChildText(el, "userAgent"),
		Name:      wire.ChildText(el, "name"),
		Image:     wire.ChildText(el, "image"),
		URL:       wire.ChildText(el, "url"),
	}
}

// IdentityInfo is one asserted identity attached to a lockbox.
type IdentityInfo struct {
	Disposition types.Disposition
	URI         string
	Provider    string
	StableID    string
	Updated     time.Time
}

func (i IdentityInfo) IsEmpty() bool { return i == IdentityInfo{} }

func (i IdentityInfo) Encode(parent *etree.Element) {
	if i.IsEmpty() {
		return
	}
	el := parent.CreateElement("identity")
	wire.SetAttr(el, "disposition", i.Disposition.String())
	optText(el, "uri", i.URI)
	optText(el, "provider", i.Provider)
	optText(el, "stableID", i.StableID)
	optTime(el, "updated", i.Updated)
}

func DecodeIdentity(el *etree.Element) IdentityInfo {
	if el == nil {
		return IdentityInfo{}
	}
	return IdentityInfo{
		Disposition: types.ParseDisposition(wire.Attr(el, "disposition")),
		URI:         wire.ChildText(el, "uri"),
		Provider:    wire.ChildText(el, "provider"),
		StableID:    wire.ChildText(el, "stableID"),
		Updated:     wire.ChildTime(el, "updated"),
	}
}

// EncodeIdentities writes a list of identities under <identities>.
func EncodeIdentities(parent *etree.Element, ids []IdentityInfo) {
	if len(ids) == 0 {
		return
	}
	c := parent.CreateElement("identities")
	for _, id := range ids {
		id.Encode(c)
	}
}

// DecodeIdentities reads the <identities> list of parent.
func DecodeIdentities(parent *etree.Element) []IdentityInfo {
	var out []IdentityInfo
	wire.Each(parent, "identities", "identity", func(el *etree.Element) {
		out = append(out, DecodeIdentity(el))
	})
	return out
}

func optText(el *etree.Element, tag, v string) {
	if v != "" {
		wire.Text(el, tag, v)
	}
}

func optJSON(el *etree.Element, tag, v string) {
	if v != "" {
		wire.JSON(el, tag, v)
	}
}

func optTime(el *etree.Element, tag string, t time.Time) {
	if !t.IsZero() {
		wire.Time(el, tag, t)
	}
}

func optUint(el *etree.Element, tag string, v uint64) {
	if v != 0 {
		wire.Uint(el, tag, v)
	}
}

func optBool(el *etree.Element, tag string, v bool) {
	if v {
		wire.Bool(el, tag, v)
	}
}
