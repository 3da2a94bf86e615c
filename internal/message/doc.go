// Package message defines the request/result/notify taxonomy exchanged with
// federated services and peers, and its XML encoding.
//
// Every message is identified by a Key: the handler (the factory namespace,
// e.g. "lockbox"), the method, and the kind. A Registry maps keys to decode
// functions so new factories can be added without touching this package; each
// factory subpackage exposes a Register function.
//
// Wire form:
//
//	<request handler="lockbox" method="lockbox-access" id="..." domain="...">
//	  ...body...
//	</request>
//
// Failure results carry <error><reason id="CODE">text</reason></error> under
// the root.
package message
