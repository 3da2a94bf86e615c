package info

import (
	"github.com/beevik/etree"

	"openpeer/internal/wire"
)

// ChallengeTag is the element name of a namespace grant challenge; it is the
// element a grant signature covers.
const ChallengeTag = "namespaceGrantChallenge"

// ChallengeInfo is a namespace grant challenge issued by a service.
type ChallengeInfo struct {
	ID         string
	Name       string
	Image      string
	URL        string
	Namespaces []string
}

func (c ChallengeInfo) IsEmpty() bool {
	return c.ID == "" && c.Name == "" && c.Image == "" && c.URL == "" && len(c.Namespaces) == 0
}

// Element builds the challenge element without attaching it.
func (c ChallengeInfo) Element() *etree.Element {
	el := etree.NewElement(ChallengeTag)
	wire.SetAttr(el, "id", c.ID)
	optText(el, "name", c.Name)
	optText(el, "image", c.Image)
	optText(el, "url", c.URL)
	if len(c.Namespaces) > 0 {
		wire.Strings(el, "namespaces", "namespace", c.Namespaces)
	}
	return el
}

func (c ChallengeInfo) Encode(parent *etree.Element) {
	if c.IsEmpty() {
		return
	}
	parent.AddChild(c.Element())
}

func DecodeChallenge(el *etree.Element) ChallengeInfo {
	if el == nil {
		return ChallengeInfo{}
	}
	return ChallengeInfo{
		ID:         wire.Attr(el, "id"),
		Name:       wire.ChildText(el, "name"),
		Image:      wire.ChildText(el, "image"),
		URL:        wire.ChildText(el, "url"),
		Namespaces: wire.ChildStrings(el, "namespaces", "namespace"),
	}
}

// SignatureInfo is a detached signature over an id-referenced sibling.
type SignatureInfo struct {
	Reference    string
	Algorithm    string
	DigestValue  string
	DigestSigned string
	KeyURI       string
}

func (s SignatureInfo) IsEmpty() bool { return s == SignatureInfo{} }

func (s SignatureInfo) Element() *etree.Element {
	el := etree.NewElement("signature")
	optText(el, "reference", s.Reference)
	optText(el, "algorithm", s.Algorithm)
	optText(el, "digestValue", s.DigestValue)
	optText(el, "digestSigned", s.DigestSigned)
	if s.KeyURI != "" {
		wire.Text(el.CreateElement("key"), "uri", s.KeyURI)
	}
	return el
}

func (s SignatureInfo) Encode(parent *etree.Element) {
	if s.IsEmpty() {
		return
	}
	parent.AddChild(s.Element())
}

func DecodeSignature(el *etree.Element) SignatureInfo {
	if el == nil {
		return SignatureInfo{}
	}
	return SignatureInfo{
		Reference:    wire.ChildText(el, "reference"),
		Algorithm:    wire.ChildText(el, "algorithm"),
		DigestValue:  wire.ChildText(el, "digestValue"),
		DigestSigned: wire.ChildText(el, "digestSigned"),
		KeyURI:       wire.ChildText(wire.Child(el, "key"), "uri"),
	}
}

// ChallengeBundle is a challenge plus the grant service's signature over it.
type ChallengeBundle struct {
	Challenge ChallengeInfo
	Signature SignatureInfo
}

func (b ChallengeBundle) IsEmpty() bool {
	return b.Challenge.IsEmpty() && b.Signature.IsEmpty()
}

// Element builds the bundle: the challenge followed by its signature.
func (b ChallengeBundle) Element() *etree.Element {
	el := etree.NewElement("namespaceGrantChallengeBundle")
	el.AddChild(b.Challenge.Element())
	b.Signature.Encode(el)
	return el
}

func (b ChallengeBundle) Encode(parent *etree.Element) {
	if b.IsEmpty() {
		return
	}
	parent.AddChild(b.Element())
}

func DecodeBundle(el *etree.Element) ChallengeBundle {
	if el == nil {
		return ChallengeBundle{}
	}
	return ChallengeBundle{
		Challenge: DecodeChallenge(wire.Child(el, ChallengeTag)),
		Signature: DecodeSignature(wire.Child(el, "signature")),
	}
}

// EncodeBundles writes bundles under <namespaceGrantChallengeBundles>.
func EncodeBundles(parent *etree.Element, bundles []ChallengeBundle) {
	if len(bundles) == 0 {
		return
	}
	c := parent.CreateElement("namespaceGrantChallengeBundles")
	for _, b := range bundles {
		b.Encode(c)
	}
}

func DecodeBundles(parent *etree.Element) []ChallengeBundle {
	var out []ChallengeBundle
	wire.Each(parent, "namespaceGrantChallengeBundles", "namespaceGrantChallengeBundle", func(el *etree.Element) {
		out = append(out, DecodeBundle(el))
	})
	return out
}

// EncodeChallenges writes challenges under <namespaceGrantChallenges>.
func EncodeChallenges(parent *etree.Element, cs []ChallengeInfo) {
	if len(cs) == 0 {
		return
	}
	c := parent.CreateElement("namespaceGrantChallenges")
	for _, ch := range cs {
		ch.Encode(c)
	}
}

func DecodeChallenges(parent *etree.Element) []ChallengeInfo {
	var out []ChallengeInfo
	wire.Each(parent, "namespaceGrantChallenges", ChallengeTag, func(el *etree.Element) {
		out = append(out, DecodeChallenge(el))
	})
	return out
}
