package peer

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme prefixes every peer URI.
const Scheme = "peer://"

// ErrInvalidURI is returned for strings that are not peer URIs.
var ErrInvalidURI = errors.New("peer: invalid peer URI")

// SplitURI splits "peer://domain/contactID".
func SplitURI(uri string) (domain, contactID string, err error) {
	rest, ok := strings.CutPrefix(uri, Scheme)
	if !ok {
		return "", "", fmt.Errorf("%q: %w", uri, ErrInvalidURI)
	}
	domain, contactID, ok = strings.Cut(rest, "/")
	if !ok || !validDomain(domain) || !validContact(contactID) {
		return "", "", fmt.Errorf("%q: %w", uri, ErrInvalidURI)
	}
	return domain, contactID, nil
}

// JoinURI is the inverse of SplitURI. It does not validate its inputs.
func JoinURI(domain, contactID string) string {
	return Scheme + domain + "/" + contactID
}

// IsValid reports whether uri follows the peer URI grammar.
func IsValid(uri string) bool {
	_, _, err := SplitURI(uri)
	return err == nil
}

func validDomain(s string) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == ':':
		default:
			return false
		}
	}
	return true
}

func validContact(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
