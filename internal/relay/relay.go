package relay

import (
	"errors"

	"openpeer/internal/domain"
)

// ErrNoRoute is returned when a destination has no known endpoint.
var ErrNoRoute = errors.New("relay: no route to destination")

// Receiver accepts encoded messages. monitor.Dispatcher implements it.
type Receiver interface {
	Deliver(b []byte, source string)
}

var (
	_ domain.Transport = (*HTTP)(nil)
	_ domain.Transport = (*Server)(nil)
	_ domain.Transport = (*Endpoint)(nil)
)
