//go:build unix

package tor

import "syscall"

// detachedProcAttr starts the daemon in a new session.
// No Pdeathsig: the daemon outlives the supervisor's thread after the handoff.
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid: true,
	}
}
