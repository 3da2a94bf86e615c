package federation

import (
	"openpeer/internal/message"
	"openpeer/internal/message/bootstrapper"
)

func (s *Server) routeBootstrapper() {
	s.handle(bootstrapper.Handler, bootstrapper.MethodServicesGet, func(m message.Message) {
		req, ok := m.(*bootstrapper.ServicesGetRequest)
		if !ok {
			return
		}
		res := bootstrapper.NewServicesGetResult(req)
		res.Services = s.cfg.Services
		s.reply(&req.Header, res)
	})
}
