package domain

import (
	interfaces "openpeer/internal/domain/interfaces"
	types "openpeer/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Fingerprint    = types.Fingerprint
	Disposition    = types.Disposition
	Identity       = types.Identity
	AccountProfile = types.AccountProfile
	Location       = types.Location
	DatabaseRecord = types.DatabaseRecord
	EntryRecord    = types.EntryRecord
	Ed25519Public  = types.Ed25519Public
	Ed25519Private = types.Ed25519Private
)

const (
	DispositionNone   = types.DispositionNone
	DispositionAdd    = types.DispositionAdd
	DispositionUpdate = types.DispositionUpdate
	DispositionRemove = types.DispositionRemove
)

// ParseDisposition maps wire text to a Disposition.
var ParseDisposition = types.ParseDisposition

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService = interfaces.IdentityService
	IdentityStore   = interfaces.IdentityStore
	AccountStore    = interfaces.AccountStore
	LocationStore   = interfaces.LocationStore
	Transport       = interfaces.Transport
)
