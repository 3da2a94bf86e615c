// Package commands defines the openpeer CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init           Create the local identity under a domain
//   - fingerprint    Print the identity fingerprint, peer URI and public key
//   - uri            Split, join or validate peer URIs
//   - sign, verify   Sign an XML element or verify its signature
//   - login          Log in through the bootstrapper and bring up the sessions
//   - db             Edit and inspect local location databases
//   - config         Print the effective configuration
//
// # Implementation
//
// The root command loads the TOML config, applies flag overrides and builds
// an app.App before any subcommand runs; subcommands receive it through the
// cli value rather than package state.
package commands
