package pushmailbox

import (
	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

// FoldersGetRequest lists folders changed since Version ("" for all).
type FoldersGetRequest struct {
	message.Header
	Access  info.AccessInfo
	Version string
}

func NewFoldersGetRequest(domain string) *FoldersGetRequest {
	return &FoldersGetRequest{Header: message.NewRequestHeader(Handler, MethodFoldersGet, domain)}
}

func (m *FoldersGetRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrAccess:
		return !m.Access.IsEmpty()
	case AttrVersion:
		return m.Version != ""
	}
	return false
}

func (m *FoldersGetRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAccess) {
		m.Access.Encode(root, AccessTag)
	}
	if m.HasAttribute(AttrVersion) {
		wire.Text(root, "version", m.Version)
	}
}

type FoldersGetResult struct {
	message.Header
	Version string
	Folders []info.FolderInfo
}

func (m *FoldersGetResult) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrVersion:
		return m.Version != ""
	case AttrFolders:
		return len(m.Folders) > 0
	}
	return false
}

func (m *FoldersGetResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrVersion) {
		wire.Text(root, "version", m.Version)
	}
	if m.HasAttribute(AttrFolders) {
		info.EncodeFolders(root, m.Folders)
	}
}

// FolderGetRequest reads the messages of one folder. Folder.Version, when
// set, limits the result to messages changed after it.
type FolderGetRequest struct {
	message.Header
	Access info.AccessInfo
	Folder info.FolderInfo
}

func NewFolderGetRequest(domain string) *FolderGetRequest {
	return &FolderGetRequest{Header: message.NewRequestHeader(Handler, MethodFolderGet, domain)}
}

func (m *FolderGetRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrAccess:
		return !m.Access.IsEmpty()
	case AttrFolder:
		return !m.Folder.IsEmpty()
	}
	return false
}

func (m *FolderGetRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAccess) {
		m.Access.Encode(root, AccessTag)
	}
	if m.HasAttribute(AttrFolder) {
		m.Folder.Encode(root)
	}
}

// FolderGetResult holds the folder descriptor and its messages in server
// order.
type FolderGetResult struct {
	message.Header
	Folder   info.FolderInfo
	Messages []info.PushMessageInfo
}

func (m *FolderGetResult) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrFolder:
		return !m.Folder.IsEmpty()
	case AttrMessages:
		return len(m.Messages) > 0
	}
	return false
}

func (m *FolderGetResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrFolder) {
		m.Folder.Encode(root)
	}
	if m.HasAttribute(AttrMessages) {
		info.EncodePushMessages(root, m.Messages)
	}
}

// ChangeNotify lists folders that changed since the last notify.
type ChangeNotify struct {
	message.Header
	Folders []info.FolderInfo
}

func NewChangeNotify(domain string) *ChangeNotify {
	return &ChangeNotify{Header: message.NotifyHeader(Handler, MethodChange, domain)}
}

func (m *ChangeNotify) HasAttribute(a message.Attribute) bool {
	return a == AttrFolders && len(m.Folders) > 0
}

func (m *ChangeNotify) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrFolders) {
		info.EncodeFolders(root, m.Folders)
	}
}
