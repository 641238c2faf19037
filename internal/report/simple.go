package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter outputs a short plain text report.
type SimpleWriter struct {
	baseWriter

	// verbose lists every attempt instead of only the last failure.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every attempt.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report.
func (w *SimpleWriter) Write(report *CheckReport) (int, error) {
	var sb strings.Builder

	status := "READY"
	switch {
	case report.Interrupted:
		status = "INTERRUPTED"
	case !report.Ready():
		status = "NOT READY"
	}

	fmt.Fprintf(&sb, "Tor: %s\n", status)
	fmt.Fprintf(&sb, "  Proxy:    socks5h://%s\n", report.SocksAddress)
	fmt.Fprintf(&sb, "  Check:    %s (%s)\n", report.CheckURL, report.Probe)
	fmt.Fprintf(&sb, "  Attempts: %d/%d\n", len(report.Attempts), report.MaxAttempts)
	fmt.Fprintf(&sb, "  Elapsed:  %s\n", report.Elapsed)

	if w.verbose {
		for _, a := range report.Attempts {
			line := fmt.Sprintf("  #%-3d %-8s %s", a.Seq, a.Outcome, a.Duration)
			if a.Error != "" {
				line += "  " + a.Error
			}
			sb.WriteString(line + "\n")
		}
	} else if !report.Ready() {
		if last := lastError(report); last != "" {
			fmt.Fprintf(&sb, "  Last error: %s\n", last)
		}
	}

	return io.WriteString(w.output, sb.String())
}

func lastError(report *CheckReport) string {
	for i := len(report.Attempts) - 1; i >= 0; i-- {
		if report.Attempts[i].Error != "" {
			return report.Attempts[i].Error
		}
	}
	return ""
}
