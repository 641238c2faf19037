// Package main provides the entry point for the onionentry CLI.
//
// onionentry is the entry process of a container that runs an application
// behind Tor. It starts the Tor daemon, waits until the SOCKS proxy can
// reach the network, then replaces itself with the application.
//
// Usage:
//
//	onionentry [flags] [-- command [args...]]
//	onionentry check
//
// See --help for all available options.
package main

// main is the entry point for onionentry.
func main() {
	Execute()
}
