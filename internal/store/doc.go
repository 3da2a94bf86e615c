// Package store provides the persistence behind openpeer's domain interfaces.
//
// Small documents are JSON files written atomically under the configured
// home directory:
//   - the local identity, sealed with a passphrase (IdentityFileStore)
//   - lockbox account profiles per bootstrapper and domain (AccountFileStore)
//
// Location databases live in SQLite (LocationSQLStore): one row per database
// descriptor and one per entry, indexed by update version so a replica can
// read everything changed after a cursor.
//
// All stores are safe for concurrent use.
package store
