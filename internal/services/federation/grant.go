package federation

import (
	"openpeer/internal/message"
	"openpeer/internal/message/namespacegrant"
	"openpeer/internal/peer"
)

// The grant window is shown and approved on the spot: every challenge is
// signed as soon as it arrives.
func (s *Server) routeGrant() {
	s.handle(namespacegrant.Handler, namespacegrant.MethodStart, func(m message.Message) {
		req, ok := m.(*namespacegrant.StartRequest)
		if !ok {
			return
		}
		if len(req.Challenges) == 0 {
			s.failure(&req.Header, message.CodeBadRequest, "no challenges")
			return
		}
		s.send(req.Source, namespacegrant.NewWindowNotify(s.cfg.Domain, true, true))

		res := namespacegrant.NewStartResult(req)
		for _, ch := range req.Challenges {
			if ch.ID == "" {
				continue
			}
			b, err := peer.SignBundle(ch, s.cfg.Signer.EdPriv, s.cfg.Signer.URI)
			if err != nil {
				s.log.Error().Err(err).Str("challenge", ch.ID).Msg("signing failed")
				s.failure(&req.Header, message.CodeInternal, "signing failed")
				return
			}
			res.Bundles = append(res.Bundles, b)
		}
		s.send(req.Source, namespacegrant.NewWindowNotify(s.cfg.Domain, true, false))
		s.reply(&req.Header, res)
	})
}
