// Package supervisor runs the container entry sequence: launch Tor, wait
// for it to be usable, hand off to the application.
//
// The steps run strictly one after another. What happens when the daemon
// never becomes usable is an explicit config.ExhaustionPolicy. Failures
// are returned as *ExitError values whose Code is the process exit status.
package supervisor
