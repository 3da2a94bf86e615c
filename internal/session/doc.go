// Package session implements the client side of the federated service
// sessions: namespace grant, lockbox and push mailbox. Each session is a
// state machine running on its dispatcher's queue; it always ends in
// StateShutdown and notifies its observers one last time when it gets there.
package session
