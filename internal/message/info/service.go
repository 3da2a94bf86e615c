package info

import (
	"github.com/beevik/etree"

	"openpeer/internal/wire"
)

// ServiceMethod is one callable endpoint of a service.
type ServiceMethod struct {
	Name string
	URI  string
}

// ServiceInfo describes one federated service returned by the bootstrapper.
type ServiceInfo struct {
	ID      string
	Type    string
	Version string
	Methods []ServiceMethod
}

func (s ServiceInfo) Encode(parent *etree.Element) {
	el := parent.CreateElement("service")
	wire.SetAttr(el, "id", s.ID)
	optText(el, "type", s.Type)
	optText(el, "version", s.Version)
	if len(s.Methods) == 0 {
		return
	}
	ms := el.CreateElement("methods")
	for _, m := range s.Methods {
		mel := ms.CreateElement("method")
		optText(mel, "name", m.Name)
		optText(mel, "uri", m.URI)
	}
}

func DecodeService(el *etree.Element) ServiceInfo {
	if el == nil {
		return ServiceInfo{}
	}
	s := ServiceInfo{
		ID:      wire.Attr(el, "id"),
		Type:    wire.ChildText(el, "type"),
		Version: wire.ChildText(el, "version"),
	}
	wire.Each(el, "methods", "method", func(m *etree.Element) {
		s.Methods = append(s.Methods, ServiceMethod{
			Name: wire.ChildText(m, "name"),
			URI:  wire.ChildText(m, "uri"),
		})
	})
	return s
}

// MethodURI returns the URI serving method, or "".
func (s ServiceInfo) MethodURI(method string) string {
	for _, m := range s.Methods {
		if m.Name == method {
			return m.URI
		}
	}
	return ""
}

func EncodeServices(parent *etree.Element, services []ServiceInfo) {
	if len(services) == 0 {
		return
	}
	c := parent.CreateElement("services")
	for _, s := range services {
		s.Encode(c)
	}
}

func DecodeServices(parent *etree.Element) []ServiceInfo {
	var out []ServiceInfo
	wire.Each(parent, "services", "service", func(el *etree.Element) {
		out = append(out, DecodeService(el))
	})
	return out
}
