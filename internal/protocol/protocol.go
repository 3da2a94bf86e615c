package protocol

import (
	"openpeer/internal/message"
	"openpeer/internal/message/bootstrapper"
	"openpeer/internal/message/database"
	"openpeer/internal/message/lockbox"
	"openpeer/internal/message/namespacegrant"
	"openpeer/internal/message/pushmailbox"
	"openpeer/internal/message/rolodex"
)

// NewRegistry returns a registry holding the decoders of every service.
func NewRegistry() *message.Registry {
	r := message.NewRegistry()
	bootstrapper.Register(r)
	namespacegrant.Register(r)
	lockbox.Register(r)
	pushmailbox.Register(r)
	rolodex.Register(r)
	database.Register(r)
	return r
}

// Handlers returns the federated service handlers.
func Handlers() []message.Handler {
	return []message.Handler{
		bootstrapper.Handler,
		namespacegrant.Handler,
		lockbox.Handler,
		pushmailbox.Handler,
		rolodex.Handler,
	}
}
