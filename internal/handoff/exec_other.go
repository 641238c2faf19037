//go:build !unix

package handoff

// execFn is replaced in tests.
var execFn = runAndExit
