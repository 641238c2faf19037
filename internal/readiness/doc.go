// Package readiness decides when the Tor daemon is usable.
//
// A Loop runs a Prober a bounded number of times at a fixed interval and
// stops at the first success. Attempt k starts after k-1 intervals, so a
// daemon that never becomes usable costs at most MaxAttempts-1 intervals
// plus MaxAttempts attempt timeouts. The loop reports what happened in a
// Result and leaves the decision of what to do on exhaustion to the
// caller.
//
// Time is read and slept through a Clock so tests run without waiting.
package readiness
