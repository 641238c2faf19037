//go:build !unix

package tor

import "syscall"

// detachedProcAttr returns nil: there is no session to detach from.
func detachedProcAttr() *syscall.SysProcAttr {
	return nil
}
