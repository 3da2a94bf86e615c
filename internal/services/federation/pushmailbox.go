package federation

import (
	"sort"
	"strconv"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/message/pushmailbox"
	"openpeer/internal/peer"
)

// DefaultFolder is created in every new mailbox.
const DefaultFolder = "inbox"

type mailbox struct {
	peerURI  string
	granted  bool
	version  uint64
	folders  map[string]*folder
	push     info.PushRegistration
	watchers map[string]bool
}

type folder struct {
	info     info.FolderInfo
	messages []info.PushMessageInfo
}

func (mb *mailbox) folderList() []info.FolderInfo {
	out := make([]info.FolderInfo, 0, len(mb.folders))
	for _, f := range mb.folders {
		out = append(out, f.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Server) routeMailbox() {
	s.handle(pushmailbox.Handler, pushmailbox.MethodAccess, s.mailboxAccess)
	s.handle(pushmailbox.Handler, pushmailbox.MethodChallengeValidate, s.mailboxValidate)
	s.handle(pushmailbox.Handler, pushmailbox.MethodRegisterPush, s.mailboxRegister)
	s.handle(pushmailbox.Handler, pushmailbox.MethodFoldersGet, s.mailboxFolders)
	s.handle(pushmailbox.Handler, pushmailbox.MethodFolderGet, s.mailboxFolder)
}

func (s *Server) mailbox(peerURI string) *mailbox {
	mb, ok := s.mailboxes[peerURI]
	if !ok {
		mb = &mailbox{
			peerURI:  peerURI,
			folders:  map[string]*folder{DefaultFolder: {info: info.FolderInfo{Name: DefaultFolder, Version: "0"}}},
			watchers: make(map[string]bool),
		}
		s.mailboxes[peerURI] = mb
	}
	return mb
}

func (s *Server) mailboxAccess(m message.Message) {
	req, ok := m.(*pushmailbox.AccessRequest)
	if !ok {
		return
	}
	if !peer.IsValid(req.PeerURI) {
		s.failure(&req.Header, message.CodeBadRequest, "invalid peer uri")
		return
	}
	mb := s.mailbox(req.PeerURI)
	token, secret, expires, err := s.issue(pushmailbox.Handler, mb.peerURI)
	if err != nil {
		s.failure(&req.Header, message.CodeInternal, "credential generation failed")
		return
	}
	mb.watchers[req.Source] = true

	res := pushmailbox.NewAccessResult(req)
	res.Access = info.AccessInfo{
		AccessToken:         token,
		AccessSecret:        secret,
		AccessSecretExpires: expires,
	}
	if !mb.granted {
		if len(s.cfg.MailboxNamespaces) == 0 {
			mb.granted = true
		} else {
			res.Challenge = s.challenge(pushmailbox.Handler, mb.peerURI, "push-mailbox", s.cfg.MailboxNamespaces)
		}
	}
	s.reply(&req.Header, res)
}

func (s *Server) mailboxAuth(req *message.Header, acc info.AccessInfo, needGrant bool) *mailbox {
	c, ok := s.authorize(pushmailbox.Handler, req.Method, acc.AccessToken, acc.AccessSecretProof, acc.AccessSecretProofExpires)
	if !ok {
		s.failure(req, message.CodeUnauthorized, "invalid access proof")
		return nil
	}
	mb := s.mailboxes[c.owner]
	if needGrant && !mb.granted {
		s.failure(req, message.CodeForbidden, "namespaces not granted")
		return nil
	}
	return mb
}

func (s *Server) mailboxValidate(m message.Message) {
	req, ok := m.(*pushmailbox.ChallengeValidateRequest)
	if !ok {
		return
	}
	mb := s.mailboxAuth(&req.Header, req.Access, false)
	if mb == nil {
		return
	}
	if !s.validate(pushmailbox.Handler, mb.peerURI, req.Bundles) {
		s.failure(&req.Header, message.CodeForbidden, "challenge not satisfied")
		return
	}
	mb.granted = true
	s.reply(&req.Header, &pushmailbox.EmptyResult{Header: message.ResultHeader(&req.Header)})
}

func (s *Server) mailboxRegister(m message.Message) {
	req, ok := m.(*pushmailbox.RegisterPushRequest)
	if !ok {
		return
	}
	mb := s.mailboxAuth(&req.Header, req.Access, true)
	if mb == nil {
		return
	}
	if req.Push.DeviceToken == "" {
		s.failure(&req.Header, message.CodeBadRequest, "device token required")
		return
	}
	expires := s.now().Add(s.cfg.PushLifetime)
	if !req.Push.Expires.IsZero() && req.Push.Expires.Before(expires) {
		expires = req.Push.Expires
	}
	mb.push = req.Push
	mb.push.Expires = expires
	s.reply(&req.Header, &pushmailbox.RegisterPushResult{
		Header:  message.ResultHeader(&req.Header),
		Expires: expires,
	})
}

func (s *Server) mailboxFolders(m message.Message) {
	req, ok := m.(*pushmailbox.FoldersGetRequest)
	if !ok {
		return
	}
	mb := s.mailboxAuth(&req.Header, req.Access, true)
	if mb == nil {
		return
	}
	current := strconv.FormatUint(mb.version, 10)
	res := &pushmailbox.FoldersGetResult{Header: message.ResultHeader(&req.Header), Version: current}
	if req.Version != current {
		res.Folders = mb.folderList()
	}
	s.reply(&req.Header, res)
}

func (s *Server) mailboxFolder(m message.Message) {
	req, ok := m.(*pushmailbox.FolderGetRequest)
	if !ok {
		return
	}
	mb := s.mailboxAuth(&req.Header, req.Access, true)
	if mb == nil {
		return
	}
	f, ok := mb.folders[req.Folder.Name]
	if !ok {
		s.failure(&req.Header, message.CodeNotFound, "folder not found")
		return
	}
	since, _ := strconv.ParseUint(req.Folder.Version, 10, 64)
	res := &pushmailbox.FolderGetResult{Header: message.ResultHeader(&req.Header), Folder: f.info}
	for _, msg := range f.messages {
		if v, _ := strconv.ParseUint(msg.Version, 10, 64); v > since {
			res.Messages = append(res.Messages, msg)
		}
	}
	s.reply(&req.Header, res)
}

// Push stores msg in a folder of the peer's mailbox and notifies every
// client that opened it. It runs on the server queue.
func (s *Server) Push(peerURI, folderName string, msg info.PushMessageInfo) {
	s.q.Post(func() {
		mb := s.mailbox(peerURI)
		f, ok := mb.folders[folderName]
		if !ok {
			f = &folder{info: info.FolderInfo{Name: folderName}}
			mb.folders[folderName] = f
		}
		mb.version++
		msg.Version = strconv.FormatUint(mb.version, 10)
		if msg.Sent.IsZero() {
			msg.Sent = s.now()
		}
		f.messages = append(f.messages, msg)
		f.info.Version = msg.Version
		f.info.Total++
		f.info.Unread++
		f.info.Updated = s.now()

		n := pushmailbox.NewChangeNotify(s.cfg.Domain)
		n.Folders = []info.FolderInfo{f.info}
		for to := range mb.watchers {
			s.send(to, n)
		}
	})
}
