// Package domain holds the plain types and contracts shared by every openpeer
// layer: identities, account profiles, location database records, and the
// store, service and transport interfaces. The types and interfaces live in
// subpackages and are re-exported here as aliases.
package domain
