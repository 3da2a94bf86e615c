// Package relay carries encoded openpeer messages between endpoints.
//
// HTTP is the client transport used against federated services: each
// message is POSTed as XML to the URL routed for its destination and a
// non-empty response body is handed to the local Receiver as the reply.
// Server is the matching http.Handler; it delivers each POST to a Receiver
// and answers a request with the result the service sends back to it. Posted
// notifies and results are acknowledged with 204 right away.
//
// Network is an in-memory switch of named endpoints used by tests.
// Destinations are endpoint names or aliases (typically a service handler
// name).
//
// Non-2xx statuses are returned as errors carrying the method, URL and
// status text.
package relay
