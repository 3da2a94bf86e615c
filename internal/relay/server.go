package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"openpeer/internal/message"
)

const (
	replyPrefix = "http-reply:"
	maxBody     = 1 << 20
)

// Server is an http.Handler that feeds POSTed messages to a Receiver and
// writes the first result sent back to the request's source as the
// response. It is also the Transport services use to answer.
type Server struct {
	recv    Receiver
	log     zerolog.Logger
	timeout time.Duration

	mu      sync.Mutex
	waiting map[string]chan []byte
}

func NewServer(recv Receiver, timeout time.Duration, log zerolog.Logger) *Server {
	return &Server{
		recv:    recv,
		log:     log.With().Str("component", "relay-server").Logger(),
		timeout: timeout,
		waiting: make(map[string]chan []byte),
	}
}

// SetReceiver replaces the receiver. It must be called before serving.
func (s *Server) SetReceiver(r Receiver) { s.recv = r }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Only requests are answered; anything else is delivered and acknowledged.
	if message.PeekKind(body) != message.KindRequest {
		s.recv.Deliver(body, replyPrefix+message.NewID())
		w.WriteHeader(http.StatusNoContent)
		return
	}

	source := replyPrefix + message.NewID()
	ch := make(chan []byte, 1)
	s.mu.Lock()
	s.waiting[source] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.waiting, source)
		s.mu.Unlock()
	}()

	s.recv.Deliver(body, source)

	status := http.StatusOK
	select {
	case reply := <-ch:
		w.Header().Set("Content-Type", ContentType)
		_, _ = w.Write(reply)
	case <-time.After(s.timeout):
		status = http.StatusNoContent
		w.WriteHeader(status)
	case <-r.Context().Done():
		status = 499
	}
	s.log.Debug().
		Str("path", r.URL.Path).
		Str("remote", r.RemoteAddr).
		Int("status", status).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("request")
}

// Send answers a pending HTTP request with a result. Only sources created by
// ServeHTTP are reachable; notifies are dropped.
func (s *Server) Send(_ context.Context, to string, m message.Message) error {
	if !strings.HasPrefix(to, replyPrefix) {
		return fmt.Errorf("%s: %w", to, ErrNoRoute)
	}
	if m.Head().Kind != message.KindResult {
		// Plain HTTP carries no server push.
		s.log.Debug().Str("to", to).Str("method", string(m.Head().Method)).Msg("dropping notify")
		return nil
	}
	b, err := message.EncodeBytes(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	ch, ok := s.waiting[to]
	if ok {
		delete(s.waiting, to)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", to, ErrNoRoute)
	}
	ch <- b
	return nil
}
