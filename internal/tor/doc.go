// Package tor launches the Tor daemon and talks to its SOCKS5 listener.
//
// Two launchers are provided. ExecLauncher runs the system tor binary with
// a torrc, the way the container image ships it. EmbeddedLauncher starts
// the daemon through tornago and is meant for local runs where no torrc is
// installed. Both return a DaemonHandle immediately usable for a stop
// request; neither waits for the network to be usable, which is the
// readiness loop's job.
//
// Client dials through the SOCKS5 listener with socks5h semantics and
// builds HTTP clients for the HTTPS probe. CheckConnection performs a bare
// SOCKS5 CONNECT for the lighter probe.
//
// IsValidV3Address validates v3 onion addresses, which may be used as the
// check endpoint.
package tor
