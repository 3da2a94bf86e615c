package message

import (
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// Message is implemented by every decoded or constructed message.
type Message interface {
	// Head returns the shared header; it is never nil.
	Head() *Header
	// EncodeBody appends the message-specific children to root.
	EncodeBody(root *etree.Element)
}

// Header carries the fields common to every message. Concrete messages embed
// it, which also gives them the Head method.
type Header struct {
	Kind    Kind
	Handler Handler
	Method  Method
	ID      string
	Domain  string
	AppID   string
	Epoch   time.Time
	Err     *Error

	// Source names the transport endpoint the message arrived from. It is
	// never encoded.
	Source string
}

func (h *Header) Head() *Header { return h }

// Key returns the dispatch key of the header.
func (h *Header) Key() Key {
	return Key{Handler: h.Handler, Method: h.Method, Kind: h.Kind}
}

// Failed reports whether the header carries an error block.
func (h *Header) Failed() bool { return h.Err != nil }

// NewID returns a fresh correlation id.
func NewID() string {
	return uuid.NewString()
}

// NewRequestHeader starts a request with a new correlation id.
func NewRequestHeader(handler Handler, method Method, domain string) Header {
	return Header{
		Kind:    KindRequest,
		Handler: handler,
		Method:  method,
		ID:      NewID(),
		Domain:  domain,
	}
}

// ResultHeader returns the header of a result answering req.
func ResultHeader(req *Header) Header {
	return Header{
		Kind:    KindResult,
		Handler: req.Handler,
		Method:  req.Method,
		ID:      req.ID,
		Domain:  req.Domain,
		AppID:   req.AppID,
	}
}

// NotifyHeader starts a notification. Notifies carry their own id.
func NotifyHeader(handler Handler, method Method, domain string) Header {
	return Header{
		Kind:    KindNotify,
		Handler: handler,
		Method:  method,
		ID:      NewID(),
		Domain:  domain,
	}
}

// NewErrorResult builds a failure result for req.
func NewErrorResult(req *Header, code int, reason string) *Generic {
	h := ResultHeader(req)
	h.Err = NewError(code, reason)
	return &Generic{Header: h}
}

// Generic holds any message whose key has no registered decoder, and failure
// results built locally. Body keeps the raw root for inspection.
type Generic struct {
	Header
	Body *etree.Element
}

func (g *Generic) EncodeBody(root *etree.Element) {
	if g.Body == nil {
		return
	}
	for _, c := range g.Body.ChildElements() {
		if c.Tag == "error" {
			continue
		}
		root.AddChild(c.Copy())
	}
}

var _ Message = (*Generic)(nil)
