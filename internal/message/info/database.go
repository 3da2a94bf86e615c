package info

import (
	"time"

	"github.com/beevik/etree"

	"openpeer/internal/domain/types"
	"openpeer/internal/wire"
)

// LocationInfo names the peer location a database request targets.
type LocationInfo struct {
	PeerURI    string
	LocationID string
}

func (l LocationInfo) IsEmpty() bool { return l == LocationInfo{} }

func (l LocationInfo) Location() types.Location {
	return types.Location{PeerURI: l.PeerURI, LocationID: l.LocationID}
}

func FromLocation(l types.Location) LocationInfo {
	return LocationInfo{PeerURI: l.PeerURI, LocationID: l.LocationID}
}

func (l LocationInfo) Encode(parent *etree.Element) {
	if l.IsEmpty() {
		return
	}
	el := parent.CreateElement("location")
	wire.SetAttr(el, "id", l.LocationID)
	optText(el, "peer", l.PeerURI)
}

func DecodeLocation(el *etree.Element) LocationInfo {
	if el == nil {
		return LocationInfo{}
	}
	return LocationInfo{
		PeerURI:    wire.ChildText(el, "peer"),
		LocationID: wire.Attr(el, "id"),
	}
}

// DatabaseInfo describes one location database. MetaData is JSON-encoded on
// the wire.
type DatabaseInfo struct {
	Disposition types.Disposition
	ID          string
	MetaData    string
	Created     time.Time
	Expires     time.Time
	Version     uint64
	// UpdateVersion is the list-level version of the last catalog change.
	UpdateVersion uint64
}

func (d DatabaseInfo) IsEmpty() bool { return d == DatabaseInfo{} }

func (d DatabaseInfo) Encode(parent *etree.Element) {
	if d.IsEmpty() {
		return
	}
	el := parent.CreateElement("database")
	wire.SetAttr(el, "id", d.ID)
	wire.SetAttr(el, "disposition", d.Disposition.String())
	optJSON(el, "metaData", d.MetaData)
	optTime(el, "created", d.Created)
	optTime(el, "expires", d.Expires)
	optUint(el, "version", d.Version)
	optUint(el, "updateVersion", d.UpdateVersion)
}

func DecodeDatabase(el *etree.Element) DatabaseInfo {
	if el == nil {
		return DatabaseInfo{}
	}
	return DatabaseInfo{
		Disposition:   types.ParseDisposition(wire.Attr(el, "disposition")),
		ID:            wire.Attr(el, "id"),
		MetaData:      wire.ChildJSON(el, "metaData"),
		Created:       wire.ChildTime(el, "created"),
		Expires:       wire.ChildTime(el, "expires"),
		Version:       wire.ChildUint(el, "version"),
		UpdateVersion: wire.ChildUint(el, "updateVersion"),
	}
}

func EncodeDatabases(parent *etree.Element, ds []DatabaseInfo) {
	if len(ds) == 0 {
		return
	}
	c := parent.CreateElement("databases")
	for _, d := range ds {
		d.Encode(c)
	}
}

func DecodeDatabases(parent *etree.Element) []DatabaseInfo {
	var out []DatabaseInfo
	wire.Each(parent, "databases", "database", func(el *etree.Element) {
		out = append(out, DecodeDatabase(el))
	})
	return out
}

// EntryInfo is one location database entry. Data and MetaData are
// JSON-encoded on the wire.
type EntryInfo struct {
	Disposition types.Disposition
	ID          string
	Version     uint64
	MetaData    string
	Data        string
	DataLength  uint64
	Created     time.Time
	Updated     time.Time
}

func (e EntryInfo) IsEmpty() bool { return e == EntryInfo{} }

func (e EntryInfo) Encode(parent *etree.Element) {
	if e.IsEmpty() {
		return
	}
	el := parent.CreateElement("entry")
	wire.SetAttr(el, "id", e.ID)
	wire.SetAttr(el, "disposition", e.Disposition.String())
	optUint(el, "version", e.Version)
	optJSON(el, "metaData", e.MetaData)
	optJSON(el, "data", e.Data)
	optUint(el, "length", e.DataLength)
	optTime(el, "created", e.Created)
	optTime(el, "updated", e.Updated)
}

func DecodeEntry(el *etree.Element) EntryInfo {
	if el == nil {
		return EntryInfo{}
	}
	return EntryInfo{
		Disposition: types.ParseDisposition(wire.Attr(el, "disposition")),
		ID:          wire.Attr(el, "id"),
		Version:     wire.ChildUint(el, "version"),
		MetaData:    wire.ChildJSON(el, "metaData"),
		Data:        wire.ChildJSON(el, "data"),
		DataLength:  wire.ChildUint(el, "length"),
		Created:     wire.ChildTime(el, "created"),
		Updated:     wire.ChildTime(el, "updated"),
	}
}

func EncodeEntries(parent *etree.Element, es []EntryInfo) {
	if len(es) == 0 {
		return
	}
	c := parent.CreateElement("entries")
	for _, e := range es {
		e.Encode(c)
	}
}

func DecodeEntries(parent *etree.Element) []EntryInfo {
	var out []EntryInfo
	wire.Each(parent, "entries", "entry", func(el *etree.Element) {
		out = append(out, DecodeEntry(el))
	})
	return out
}
