// Package protocol assembles the complete message registry.
//
// # Overview
//
// Every service factory (bootstrapper, lockbox, namespace-grant,
// push-mailbox, rolodex, location-database) registers its decoders under
// (handler, method, kind) keys. A dispatcher needs a registry holding all of
// them to decode whatever arrives; NewRegistry builds that registry.
//
// # Handlers
//
// Handlers lists the handler names in a stable order. Transports use it to
// alias every service to a single endpoint when one process hosts them all.
package protocol
