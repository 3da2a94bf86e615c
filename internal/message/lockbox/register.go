package lockbox

import (
	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

// Register installs the lockbox decoders.
func Register(r *message.Registry) {
	r.Register(message.RequestKey(Handler, MethodAccess), func(h message.Header, root *etree.Element) message.Message {
		return &AccessRequest{
			Header:   h,
			Agent:    info.DecodeAgent(wire.Child(root, "agent")),
			GrantID:  wire.ChildText(root, "grantID"),
			Lockbox:  info.DecodeLockbox(wire.Child(root, "lockbox")),
			Identity: info.DecodeIdentity(wire.Child(root, "identity")),
		}
	})
	r.Register(message.ResultKey(Handler, MethodAccess), func(h message.Header, root *etree.Element) message.Message {
		return &AccessResult{
			Header:    h,
			Lockbox:   info.DecodeLockbox(wire.Child(root, "lockbox")),
			Challenge: info.DecodeChallenge(wire.Child(root, info.ChallengeTag)),
		}
	})
	r.Register(message.RequestKey(Handler, MethodChallengeValidate), func(h message.Header, root *etree.Element) message.Message {
		return &ChallengeValidateRequest{
			Header:  h,
			Lockbox: info.DecodeLockbox(wire.Child(root, "lockbox")),
			Bundles: info.DecodeBundles(root),
		}
	})
	r.Register(message.ResultKey(Handler, MethodChallengeValidate), decodeEmptyResult)
	r.Register(message.RequestKey(Handler, MethodIdentitiesUpdate), func(h message.Header, root *etree.Element) message.Message {
		return &IdentitiesUpdateRequest{
			Header:     h,
			Lockbox:    info.DecodeLockbox(wire.Child(root, "lockbox")),
			Identities: info.DecodeIdentities(root),
		}
	})
	r.Register(message.ResultKey(Handler, MethodIdentitiesUpdate), func(h message.Header, root *etree.Element) message.Message {
		return &IdentitiesUpdateResult{Header: h, Identities: info.DecodeIdentities(root)}
	})
	r.Register(message.RequestKey(Handler, MethodContentGet), func(h message.Header, root *etree.Element) message.Message {
		return &ContentGetRequest{
			Header:  h,
			Lockbox: info.DecodeLockbox(wire.Child(root, "lockbox")),
			Content: info.DecodeContent(root),
		}
	})
	r.Register(message.ResultKey(Handler, MethodContentGet), func(h message.Header, root *etree.Element) message.Message {
		return &ContentGetResult{Header: h, Content: info.DecodeContent(root)}
	})
	r.Register(message.RequestKey(Handler, MethodContentSet), func(h message.Header, root *etree.Element) message.Message {
		return &ContentSetRequest{
			Header:  h,
			Lockbox: info.DecodeLockbox(wire.Child(root, "lockbox")),
			Content: info.DecodeContent(root),
		}
	})
	r.Register(message.ResultKey(Handler, MethodContentSet), decodeEmptyResult)
}

// EmptyResult acknowledges a request that returns no data.
type EmptyResult struct {
	message.Header
}

func (m *EmptyResult) HasAttribute(message.Attribute) bool { return false }
func (m *EmptyResult) EncodeBody(*etree.Element)           {}

func decodeEmptyResult(h message.Header, _ *etree.Element) message.Message {
	return &EmptyResult{Header: h}
}

var (
	_ message.Message = (*AccessRequest)(nil)
	_ message.Message = (*AccessResult)(nil)
	_ message.Message = (*ChallengeValidateRequest)(nil)
	_ message.Message = (*IdentitiesUpdateRequest)(nil)
	_ message.Message = (*IdentitiesUpdateResult)(nil)
	_ message.Message = (*ContentGetRequest)(nil)
	_ message.Message = (*ContentGetResult)(nil)
	_ message.Message = (*ContentSetRequest)(nil)
	_ message.Message = (*EmptyResult)(nil)
)
