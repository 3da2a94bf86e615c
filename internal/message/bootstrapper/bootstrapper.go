// Package bootstrapper holds the messages of the bootstrapper service, which
// tells a client where every other federated service of a domain lives.
package bootstrapper

import (
	"github.com/beevik/etree"

	"openpeer/internal/message"
	"openpeer/internal/message/info"
	"openpeer/internal/wire"
)

const Handler message.Handler = "bootstrapper"

const MethodServicesGet message.Method = "services-get"

const (
	AttrAgent    message.Attribute = "agent"
	AttrServices message.Attribute = "services"
)

// ServicesGetRequest asks for the service list of a domain.
type ServicesGetRequest struct {
	message.Header
	Agent info.AgentInfo
}

func NewServicesGetRequest(domain string) *ServicesGetRequest {
	return &ServicesGetRequest{Header: message.NewRequestHeader(Handler, MethodServicesGet, domain)}
}

func (m *ServicesGetRequest) HasAttribute(a message.Attribute) bool {
	return a == AttrAgent && !m.Agent.IsEmpty()
}

func (m *ServicesGetRequest) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrAgent) {
		m.Agent.Encode(root)
	}
}

// ServicesGetResult lists the services of the domain.
type ServicesGetResult struct {
	message.Header
	Services []info.ServiceInfo
}

func NewServicesGetResult(req *ServicesGetRequest) *ServicesGetResult {
	return &ServicesGetResult{Header: message.ResultHeader(&req.Header)}
}

func (m *ServicesGetResult) HasAttribute(a message.Attribute) bool {
	return a == AttrServices && len(m.Services) > 0
}

func (m *ServicesGetResult) EncodeBody(root *etree.Element) {
	if m.HasAttribute(AttrServices) {
		info.EncodeServices(root, m.Services)
	}
}

// Service returns the first service of the given type.
func (m *ServicesGetResult) Service(typ string) (info.ServiceInfo, bool) {
	for _, s := range m.Services {
		if s.Type == typ {
			return s, true
		}
	}
	return info.ServiceInfo{}, false
}

// Register installs the bootstrapper decoders.
func Register(r *message.Registry) {
	r.Register(message.RequestKey(Handler, MethodServicesGet), func(h message.Header, root *etree.Element) message.Message {
		return &ServicesGetRequest{Header: h, Agent: info.DecodeAgent(wire.Child(root, "agent"))}
	})
	r.Register(message.ResultKey(Handler, MethodServicesGet), func(h message.Header, root *etree.Element) message.Message {
		return &ServicesGetResult{Header: h, Services: info.DecodeServices(root)}
	})
}

var (
	_ message.Message    = (*ServicesGetRequest)(nil)
	_ message.Attributed = (*ServicesGetResult)(nil)
)
