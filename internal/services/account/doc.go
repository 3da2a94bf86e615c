// Package account drives a login: it asks the bootstrapper where the
// federated services live, then brings the namespace grant, lockbox and
// push mailbox sessions to Ready and keeps them for the caller.
package account
