// Package info holds the XML blocks shared by several message factories:
// agent, identity, lockbox and access credentials, namespace grant
// challenges and their signed bundles, service descriptors, push-mailbox
// folders and messages, location database descriptors and entries, and
// rolodex contacts.
//
// Every block has an Encode method that appends nothing when the block is
// empty, and a matching Decode function that returns the zero block for a
// nil element.
package info
