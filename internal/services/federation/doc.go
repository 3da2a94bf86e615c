// Package federation is an in-memory server side for the federated
// services: bootstrapper, namespace grant, lockbox, push mailbox and rolodex.
// It answers requests arriving on a dispatcher and is used by the dev
// server and by tests.
package federation
