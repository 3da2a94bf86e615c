package interfaces

import (
	"context"

	"openpeer/internal/message"
)

// Transport carries encoded messages to a named destination: a service
// handler name or a peer URI. Replies arrive through the dispatcher.
type Transport interface {
	Send(ctx context.Context, to string, msg message.Message) error
}
