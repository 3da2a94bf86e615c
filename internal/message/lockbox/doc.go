// Package lockbox holds the messages of the identity lockbox service: account
// access, namespace grant validation, identity association, and the
// namespaced content store.
package lockbox
