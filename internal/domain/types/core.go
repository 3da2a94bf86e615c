package types

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Disposition is the change state of a replicated record.
type Disposition string

const (
	DispositionNone   Disposition = ""
	DispositionAdd    Disposition = "add"
	DispositionUpdate Disposition = "update"
	DispositionRemove Disposition = "remove"
)

// String returns the string form of the disposition.
func (d Disposition) String() string { return string(d) }

// ParseDisposition maps wire text to a Disposition; unknown text maps to none.
func ParseDisposition(s string) Disposition {
	switch Disposition(s) {
	case DispositionAdd, DispositionUpdate, DispositionRemove:
		return Disposition(s)
	}
	return DispositionNone
}
