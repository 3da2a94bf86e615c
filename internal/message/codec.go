package message

import (
	"strconv"
	"sync"

	"github.com/beevik/etree"

	"openpeer/internal/wire"
)

// DecodeFunc builds a concrete message from a parsed header and its root.
type DecodeFunc func(h Header, root *etree.Element) Message

// Encode renders m as a one-root document.
func Encode(m Message) *etree.Document {
	h := m.Head()
	doc := etree.NewDocument()
	root := doc.CreateElement(h.Kind.String())
	wire.SetAttr(root, "handler", string(h.Handler))
	wire.SetAttr(root, "method", string(h.Method))
	wire.SetAttr(root, "id", h.ID)
	wire.SetAttr(root, "domain", h.Domain)
	wire.SetAttr(root, "appid", h.AppID)
	wire.SetAttr(root, "epoch", wire.FormatTime(h.Epoch))
	if h.Err != nil {
		reason := root.CreateElement("error").CreateElement("reason")
		reason.CreateAttr("id", strconv.Itoa(h.Err.Code))
		if h.Err.Reason != "" {
			reason.SetText(h.Err.Reason)
		}
	}
	m.EncodeBody(root)
	return doc
}

// EncodeBytes renders m to wire bytes.
func EncodeBytes(m Message) ([]byte, error) {
	return wire.Bytes(Encode(m))
}

// Registry maps keys to decoders. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	decoders map[Key]DecodeFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[Key]DecodeFunc)}
}

// Register installs fn for key, replacing any previous decoder.
func (r *Registry) Register(key Key, fn DecodeFunc) {
	r.mu.Lock()
	r.decoders[key] = fn
	r.mu.Unlock()
}

// Registered reports whether a decoder exists for key.
func (r *Registry) Registered(key Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.decoders[key]
	return ok
}

// Decode returns the message held by doc, or nil when the root is not a
// well-formed message envelope.
func (r *Registry) Decode(doc *etree.Document, source string) Message {
	if doc == nil {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}
	h, ok := decodeHeader(root)
	if !ok {
		return nil
	}
	h.Source = source

	r.mu.RLock()
	fn := r.decoders[h.Key()]
	r.mu.RUnlock()
	if fn == nil {
		return &Generic{Header: h, Body: root.Copy()}
	}
	return fn(h, root)
}

// Parse decodes wire bytes; malformed input yields nil.
func (r *Registry) Parse(b []byte, source string) Message {
	doc, err := wire.Parse(b)
	if err != nil {
		return nil
	}
	return r.Decode(doc, source)
}

// PeekKind returns the kind of encoded bytes without decoding the body.
func PeekKind(b []byte) Kind {
	doc, err := wire.Parse(b)
	if err != nil || doc.Root() == nil {
		return KindUnknown
	}
	return ParseKind(doc.Root().Tag)
}

func decodeHeader(root *etree.Element) (Header, bool) {
	kind := ParseKind(root.Tag)
	if kind == KindUnknown {
		return Header{}, false
	}
	h := Header{
		Kind:    kind,
		Handler: Handler(wire.Attr(root, "handler")),
		Method:  Method(wire.Attr(root, "method")),
		ID:      wire.Attr(root, "id"),
		Domain:  wire.Attr(root, "domain"),
		AppID:   wire.Attr(root, "appid"),
		Epoch:   wire.ParseTime(wire.Attr(root, "epoch")),
	}
	if h.Method == "" {
		return Header{}, false
	}
	if reason := wire.Child(wire.Child(root, "error"), "reason"); reason != nil {
		code, _ := strconv.Atoi(wire.Attr(reason, "id"))
		h.Err = NewError(code, reason.Text())
	}
	return h, true
}
