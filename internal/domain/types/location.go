package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Location names one peer location: the owning peer URI and its location id.
type Location struct {
	PeerURI    string `json:"peer_uri"`
	LocationID string `json:"location_id"`
}

// Hash returns the stable key used to index a location in persistent tables.
func (l Location) Hash() string {
	sum := sha256.Sum256([]byte(l.PeerURI + ":" + l.LocationID))
	return hex.EncodeToString(sum[:])
}

// String returns "peerURI#locationID".
func (l Location) String() string { return l.PeerURI + "#" + l.LocationID }

// DatabaseRecord is the persisted form of one location database descriptor.
type DatabaseRecord struct {
	Location              Location
	DatabaseID            string
	MetaData              string
	Created               time.Time
	Expires               time.Time
	Version               uint64
	LastDownloadedVersion uint64
	Disposition           Disposition
	UpdateVersion         uint64
}

// EntryRecord is the persisted form of one location database entry.
type EntryRecord struct {
	DatabaseID    string
	EntryID       string
	Data          string
	DataLength    int
	MetaData      string
	Disposition   Disposition
	UpdateVersion uint64
	Created       time.Time
	Updated       time.Time
	LastAccessed  time.Time
}
