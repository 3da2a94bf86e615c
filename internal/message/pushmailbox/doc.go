// Package pushmailbox holds the messages of the push-mailbox service: access
// negotiation, push registration, folder listing and folder contents, and the
// change notify the service sends when folders move on.
package pushmailbox
