// Package handoff replaces the supervisor with the application.
//
// On Unix the supervisor's process image is replaced with execve: the PID,
// open file descriptors and environment carry over, so the application
// becomes PID 1 of the container and receives the container's signals
// directly. Elsewhere the application is run as a child whose exit code
// the supervisor mirrors.
package handoff
