// Package namespacegrant holds the messages of the namespace grant service.
// A client sends all pending challenges in one start request and receives a
// signed bundle per challenge; window notifies tell the client whether the
// grant service needs its browser window shown.
package namespacegrant

import (
	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

const Handler message.Handler = "namespace-grant"

const (
	MethodStart  message.Method = "namespace-grant-start"
	MethodWindow message.Method = "namespace-grant-window"
)

const (
	AttrAgent      message.Attribute = "agent"
	AttrChallenges message.Attribute = "challenges"
	AttrBundles    message.Attribute = "bundles"
	AttrReady      message.Attribute = "ready"
	AttrVisible    message.Attribute = "visible"
)

type StartRequest struct {
	message.Header
	Agent      info.AgentInfo
	Challenges []info.ChallengeInfo
}

func NewStartRequest(domain string) *StartRequest {
	return &StartRequest{Header: message.NewRequestHeader(Handler, MethodStart, domain)}
}

func (m *StartRequest) HasAttribute(a message.Attribute) bool {
	switch a {
	case AttrAgent:
		return !m.Agent.IsEmpty()
	case AttrChallenges:
		return len(m.Challenges) > 0
	}
	return false
}

func (m *StartRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAgent) {
		m.Agent.Encode(root)
	}
	if m.HasAttribute(AttrChallenges) {
		info.EncodeChallenges(root, m.Challenges)
	}
}

type StartResult struct {
	message.Header
	Bundles []info.ChallengeBundle
}

func NewStartResult(req *StartRequest) *StartResult {
	return &StartResult{Header: message.ResultHeader(&req.Header)}
}

func (m *StartResult) HasAttribute(a message.Attribute) bool {
	return a == AttrBundles && len(m.Bundles) > 0
}

func (m *StartResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrBundles) {
		info.EncodeBundles(root, m.Bundles)
	}
}

// Bundle returns the bundle answering the challenge with the given id.
func (m *StartResult) Bundle(challengeID string) (info.ChallengeBundle, bool) {
	for _, b := range m.Bundles {
		if b.Challenge.ID == challengeID {
			return b, true
		}
	}
	return info.ChallengeBundle{}, false
}

// WindowNotify reports the grant window state. Both flags are always sent.
type WindowNotify struct {
	message.Header
	Ready   bool
	Visible bool
}

func NewWindowNotify(domain string, ready, visible bool) *WindowNotify {
	return &WindowNotify{
		Header:  message.NotifyHeader(Handler, MethodWindow, domain),
		Ready:   ready,
		Visible: visible,
	}
}

func (m *WindowNotify) HasAttribute(a message.Attribute) bool {
	return a == AttrReady || a == AttrVisible
}

func (m *WindowNotify) EncodeBody(root *etree.Element) {
	browser := root.CreateElement("browser")
	wire.Bool(browser, "ready", m.Ready)
	wire.Bool(browser, "visibility", m.Visible)
}

// Register installs the namespace grant decoders.
func Register(r *message.Registry) {
	r.Register(message.RequestKey(Handler, MethodStart), func(h message.Header, root *etree.Element) message.Message {
		return &StartRequest{
			Header:     h,
			Agent:      info.DecodeAgent(wire.Child(root, "agent")),
			Challenges: info.DecodeChallenges(root),
		}
	})
	r.Register(message.ResultKey(Handler, MethodStart), func(h message.Header, root *etree.Element) message.Message {
		return &StartResult{Header: h, Bundles: info.DecodeBundles(root)}
	})
	r.Register(message.NotifyKey(Handler, MethodWindow), func(h message.Header, root *etree.Element) message.Message {
		browser := wire.Child(root, "browser")
		return &WindowNotify{
			Header:  h,
			Ready:   wire.ChildBool(browser, "ready"),
			Visible: wire.ChildBool(browser, "visibility"),
		}
	})
}

var (
	_ message.Message = (*StartRequest)(nil)
	_ message.Message = (*StartResult)(nil)
	_ message.Message = (*WindowNotify)(nil)
)
