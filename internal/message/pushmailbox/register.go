package pushmailbox

import (
	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

func decodeAccess(root *etree.Element) info.AccessInfo {
	return info.DecodeAccess(wire.Child(root, AccessTag))
}

// Register installs the push-mailbox decoders.
func Register(r *message.Registry) {
	r.Register(message.RequestKey(Handler, MethodAccess), func(h message.Header, root *etree.Element) message.Message {
		return &AccessRequest{
			Header:  h,
			Agent:   info.DecodeAgent(wire.Child(root, "agent")),
			GrantID: wire.ChildText(root, "grantID"),
			PeerURI: wire.ChildText(root, "peer"),
		}
	})
	r.Register(message.ResultKey(Handler, MethodAccess), func(h message.Header, root *etree.Element) message.Message {
		return &AccessResult{
			Header:    h,
			Access:    decodeAccess(root),
			Challenge: info.DecodeChallenge(wire.Child(root, info.ChallengeTag)),
		}
	})
	r.Register(message.RequestKey(Handler, MethodChallengeValidate), func(h message.Header, root *etree.Element) message.Message {
		return &ChallengeValidateRequest{Header: h, Access: decodeAccess(root), Bundles: info.DecodeBundles(root)}
	})
	r.Register(message.ResultKey(Handler, MethodChallengeValidate), decodeEmptyResult)
	r.Register(message.RequestKey(Handler, MethodRegisterPush), func(h message.Header, root *etree.Element) message.Message {
		return &RegisterPushRequest{
			Header: h,
			Access: decodeAccess(root),
			Push:   info.DecodePushRegistration(wire.Child(root, "push")),
		}
	})
	r.Register(message.ResultKey(Handler, MethodRegisterPush), func(h message.Header, root *etree.Element) message.Message {
		return &RegisterPushResult{Header: h, Expires: wire.ChildTime(root, "expires")}
	})
	r.Register(message.RequestKey(Handler, MethodFoldersGet), func(h message.Header, root *etree.Element) message.Message {
		return &FoldersGetRequest{Header: h, Access: decodeAccess(root), Version: wire.ChildText(root, "version")}
	})
	r.Register(message.ResultKey(Handler, MethodFoldersGet), func(h message.Header, root *etree.Element) message.Message {
		return &FoldersGetResult{Header: h, Version: wire.ChildText(root, "version"), Folders: info.DecodeFolders(root)}
	})
	r.Register(message.RequestKey(Handler, MethodFolderGet), func(h message.Header, root *etree.Element) message.Message {
		return &FolderGetRequest{Header: h, Access: decodeAccess(root), Folder: info.DecodeFolder(wire.Child(root, "folder"))}
	})
	r.Register(message.ResultKey(Handler, MethodFolderGet), func(h message.Header, root *etree.Element) message.Message {
		return &FolderGetResult{
			Header:   h,
			Folder:   info.DecodeFolder(wire.Child(root, "folder")),
			Messages: info.DecodePushMessages(root),
		}
	})
	r.Register(message.NotifyKey(Handler, MethodChange), func(h message.Header, root *etree.Element) message.Message {
		return &ChangeNotify{Header: h, Folders: info.DecodeFolders(root)}
	})
}

func decodeEmptyResult(h message.Header, _ *etree.Element) message.Message {
	return &EmptyResult{Header: h}
}

var (
	_ message.Message = (*AccessRequest)(nil)
	_ message.Message = (*AccessResult)(nil)
	_ message.Message = (*ChallengeValidateRequest)(nil)
	_ message.Message = (*RegisterPushRequest)(nil)
	_ message.Message = (*RegisterPushResult)(nil)
	_ message.Message = (*FoldersGetRequest)(nil)
	_ message.Message = (*FoldersGetResult)(nil)
	_ message.Message = (*FolderGetRequest)(nil)
	_ message.Message = (*FolderGetResult)(nil)
	_ message.Message = (*ChangeNotify)(nil)
	_ message.Message = (*EmptyResult)(nil)
)
