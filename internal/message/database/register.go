package database

import (
	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

// Register installs the location database decoders.
func Register(r *message.Registry) {
	r.Register(message.RequestKey(Handler, MethodListSubscribe), func(h message.Header, root *etree.Element) message.Message {
		return &ListSubscribeRequest{
			Header:   h,
			Location: info.DecodeLocation(wire.Child(root, "location")),
			Version:  wire.ChildUint(root, "version"),
			Expires:  wire.ChildTime(root, "expires"),
		}
	})
	r.Register(message.ResultKey(Handler, MethodListSubscribe), decodeList)
	r.Register(message.NotifyKey(Handler, MethodListNotify), decodeList)

	r.Register(message.RequestKey(Handler, MethodSubscribe), func(h message.Header, root *etree.Element) message.Message {
		return &SubscribeRequest{
			Header:     h,
			Location:   info.DecodeLocation(wire.Child(root, "location")),
			DatabaseID: wire.ChildText(root, "databaseID"),
			Version:    wire.ChildUint(root, "version"),
			Expires:    wire.ChildTime(root, "expires"),
			Data:       wire.ChildBool(root, "data"),
		}
	})
	r.Register(message.ResultKey(Handler, MethodSubscribe), decodeEntries)
	r.Register(message.NotifyKey(Handler, MethodNotify), decodeEntries)

	r.Register(message.RequestKey(Handler, MethodDataGet), func(h message.Header, root *etree.Element) message.Message {
		return &DataGetRequest{
			Header:     h,
			Location:   info.DecodeLocation(wire.Child(root, "location")),
			DatabaseID: wire.ChildText(root, "databaseID"),
			EntryIDs:   wire.ChildStrings(root, "entryIDs", "entryID"),
		}
	})
	r.Register(message.ResultKey(Handler, MethodDataGet), decodeEntries)
}

func decodeList(h message.Header, root *etree.Element) message.Message {
	return &ListResult{
		Header:    h,
		Location:  info.DecodeLocation(wire.Child(root, "location")),
		Version:   wire.ChildUint(root, "version"),
		Expires:   wire.ChildTime(root, "expires"),
		Databases: info.DecodeDatabases(root),
	}
}

func decodeEntries(h message.Header, root *etree.Element) message.Message {
	return &EntriesResult{
		Header:   h,
		Location: info.DecodeLocation(wire.Child(root, "location")),
		Database: info.DecodeDatabase(wire.Child(root, "database")),
		Version:  wire.ChildUint(root, "version"),
		Expires:  wire.ChildTime(root, "expires"),
		Entries:  info.DecodeEntries(root),
	}
}

var (
	_ message.Message = (*ListSubscribeRequest)(nil)
	_ message.Message = (*ListResult)(nil)
	_ message.Message = (*SubscribeRequest)(nil)
	_ message.Message = (*EntriesResult)(nil)
	_ message.Message = (*DataGetRequest)(nil)
)
