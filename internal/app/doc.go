// Package app wires application dependencies for the CLIs.
//
// It loads Config from TOML, builds the logger, and constructs the concrete
// stores, transports and services into an explicit App (client side) or
// Server (the dev host of the federated services). Nothing here is a
// package-level singleton; commands pass the App they built.
package app
