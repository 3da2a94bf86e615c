package message

// Kind is the message type carried by the root tag.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequest
	KindResult
	KindNotify
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResult:
		return "result"
	case KindNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// ParseKind maps a root tag to its Kind.
func ParseKind(tag string) Kind {
	switch tag {
	case "request":
		return KindRequest
	case "result":
		return KindResult
	case "notify":
		return KindNotify
	default:
		return KindUnknown
	}
}

// Handler names a factory namespace.
type Handler string

// Method names an operation inside a factory.
type Method string

// Key identifies a message shape for dispatch.
type Key struct {
	Handler Handler
	Method  Method
	Kind    Kind
}

func (k Key) String() string {
	return string(k.Handler) + "/" + string(k.Method) + "/" + k.Kind.String()
}

// RequestKey, ResultKey and NotifyKey build keys for one method.
func RequestKey(h Handler, m Method) Key { return Key{Handler: h, Method: m, Kind: KindRequest} }
func ResultKey(h Handler, m Method) Key  { return Key{Handler: h, Method: m, Kind: KindResult} }
func NotifyKey(h Handler, m Method) Key  { return Key{Handler: h, Method: m, Kind: KindNotify} }

// Attribute names one optional field of a concrete message. Encoders emit a
// field only when HasAttribute reports it present.
type Attribute string

// Attributed is implemented by every concrete message.
type Attributed interface {
	HasAttribute(Attribute) bool
}
