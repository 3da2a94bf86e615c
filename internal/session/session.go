package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"openpeer/internal/crypto"
	"openpeer/internal/domain"
	"openpeer/internal/message"
	"openpeer/internal/monitor"
	"openpeer/internal/wire"
)

var (
	ErrNotReady     = errors.New("session: not ready")
	ErrShutdown     = errors.New("session: shut down")
	ErrNoGrant      = errors.New("session: challenge received without a namespace grant session")
	ErrNoBundle     = errors.New("session: no bundle for challenge")
	ErrBadSignature = errors.New("session: bundle signature rejected")
	ErrBadResult    = errors.New("session: malformed result")
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultProofLifetime = time.Hour
)

// State names a session state. Not every session uses every state.
type State int

const (
	StatePending State = iota
	StateWaiting
	StateAccessing
	StateChallengeWait
	StateProofSubmit
	StateIdentitiesUpdate
	StateRegistering
	StateReady
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateWaiting:
		return "waiting"
	case StateAccessing:
		return "accessing"
	case StateChallengeWait:
		return "challenge-wait"
	case StateProofSubmit:
		return "proof-submit"
	case StateIdentitiesUpdate:
		return "identities-update"
	case StateRegistering:
		return "registering"
	case StateReady:
		return "ready"
	case StateShutdown:
		return "shutdown"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StateFunc observes state changes. err is the failure that caused a
// shutdown, nil otherwise.
type StateFunc func(s State, err error)

// Config is shared by every session.
type Config struct {
	Dispatcher *monitor.Dispatcher
	Transport  domain.Transport
	Domain     string
	// To is the transport destination of the service. It defaults to the
	// service handler name.
	To            string
	Timeout       time.Duration
	ProofLifetime time.Duration
	Logger        zerolog.Logger
}

func (c Config) withDefaults(h message.Handler) Config {
	if c.To == "" {
		c.To = string(h)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ProofLifetime <= 0 {
		c.ProofLifetime = DefaultProofLifetime
	}
	return c
}

// Proof computes the access secret proof for one request: a hex HMAC-SHA256
// of "method:accessToken:expires" keyed by the access secret.
func Proof(secret string, method message.Method, token string, expires time.Time) string {
	return crypto.HMACHex([]byte(secret), fmt.Sprintf("%s:%s:%s", method, token, wire.FormatTime(expires)))
}

// CheckProof verifies a proof computed by Proof and that it has not expired
// at now.
func CheckProof(secret string, method message.Method, token, proof string, expires, now time.Time) bool {
	if proof == "" || !expires.After(now) {
		return false
	}
	return crypto.EqualHex(Proof(secret, method, token, expires), proof)
}
