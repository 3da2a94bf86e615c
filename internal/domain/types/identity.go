package types

// Identity holds the local peer URI and its long-term Ed25519 keys.
type Identity struct {
	URI    string         `json:"uri"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`
}
