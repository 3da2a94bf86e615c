package info

import (
	"time"

	"github.com/beevik/etree"

	"openpeer/internal/wire"
)

// LockboxInfo carries lockbox account credentials in both directions.
type LockboxInfo struct {
	AccountID                string
	Domain                   string
	AccessToken              string
	AccessSecret             string
	AccessSecretExpires      time.Time
	AccessSecretProof        string
	AccessSecretProofExpires time.Time
	// Key is the lockbox key material returned by the service, if any.
	Key       string
	Hash      string
	ResetFlag bool
}

func (l LockboxInfo) IsEmpty() bool { return l == LockboxInfo{} }

func (l LockboxInfo) Encode(parent *etree.Element) {
	if l.IsEmpty() {
		return
	}
	el := parent.CreateElement("lockbox")
	optText(el, "accountID", l.AccountID)
	optText(el, "domain", l.Domain)
	optText(el, "accessToken", l.AccessToken)
	optText(el, "accessSecret", l.AccessSecret)
	optTime(el, "accessSecretExpires", l.AccessSecretExpires)
	optText(el, "accessSecretProof", l.AccessSecretProof)
	optTime(el, "accessSecretProofExpires", l.AccessSecretProofExpires)
	optText(el, "key", l.Key)
	optText(el, "hash", l.Hash)
	optBool(el, "reset", l.ResetFlag)
}

func DecodeLockbox(el *etree.Element) LockboxInfo {
	if el == nil {
		return LockboxInfo{}
	}
	return LockboxInfo{
		AccountID:                wire.ChildText(el, "accountID"),
		Domain:                   wire.ChildText(el, "domain"),
		AccessToken:              wire.ChildText(el, "accessToken"),
		AccessSecret:             wire.ChildText(el, "accessSecret"),
		AccessSecretExpires:      wire.ChildTime(el, "accessSecretExpires"),
		AccessSecretProof:        wire.ChildText(el, "accessSecretProof"),
		AccessSecretProofExpires: wire.ChildTime(el, "accessSecretProofExpires"),
		Key:                      wire.ChildText(el, "key"),
		Hash:                     wire.ChildText(el, "hash"),
		ResetFlag:                wire.ChildBool(el, "reset"),
	}
}

// AccessInfo is the token/secret/proof set used by services other than the
// lockbox. The element name is chosen by the caller.
type AccessInfo struct {
	AccessToken              string
	AccessSecret             string
	AccessSecretExpires      time.Time
	AccessSecretProof        string
	AccessSecretProofExpires time.Time
}

func (a AccessInfo) IsEmpty() bool { return a == AccessInfo{} }

func (a AccessInfo) Encode(parent *etree.Element, tag string) {
	if a.IsEmpty() {
		return
	}
	el := parent.CreateElement(tag)
	optText(el, "accessToken", a.AccessToken)
	optText(el, "accessSecret", a.AccessSecret)
	optTime(el, "accessSecretExpires", a.AccessSecretExpires)
	optText(el, "accessSecretProof", a.AccessSecretProof)
	optTime(el, "accessSecretProofExpires", a.AccessSecretProofExpires)
}

func DecodeAccess(el *etree.Element) AccessInfo {
	if el == nil {
		return AccessInfo{}
	}
	return AccessInfo{
		AccessToken:              wire.ChildText(el, "accessToken"),
		AccessSecret:             wire.ChildText(el, "accessSecret"),
		AccessSecretExpires:      wire.ChildTime(el, "accessSecretExpires"),
		AccessSecretProof:        wire.ChildText(el, "accessSecretProof"),
		AccessSecretProofExpires: wire.ChildTime(el, "accessSecretProofExpires"),
	}
}
