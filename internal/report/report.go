package report

import (
	"time"

	"github.com/nao1215/onionentry/internal/readiness"
)

// CheckReport is the outcome of one readiness check with its context.
type CheckReport struct {
	// SocksAddress is the proxy that was checked.
	SocksAddress string `json:"socks_address"`

	// CheckURL is the endpoint fetched (or connected to) through the proxy.
	CheckURL string `json:"check_url"`

	// Probe is the probe kind used.
	Probe string `json:"probe"`

	// CheckedAt is when the check started.
	CheckedAt time.Time `json:"checked_at"`

	State       readiness.State `json:"state"`
	MaxAttempts int             `json:"max_attempts"`
	Attempts    []AttemptReport `json:"attempts"`

	// Elapsed is the wall time of the whole check.
	Elapsed Duration `json:"elapsed"`

	// Interrupted is set when the check was cancelled before finishing.
	Interrupted bool `json:"interrupted,omitempty"`
}

// AttemptReport is one readiness attempt.
type AttemptReport struct {
	Seq      int               `json:"seq"`
	Outcome  readiness.Outcome `json:"outcome"`
	At       time.Time         `json:"at"`
	Duration Duration          `json:"duration"`
	Error    string            `json:"error,omitempty"`
}

// Duration marshals as a Go duration string such as "1.5s".
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the duration string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// CheckTarget describes what was checked.
type CheckTarget struct {
	SocksAddress string
	CheckURL     string
	Probe        string
	MaxAttempts  int
}

// NewCheckReport builds a report from a loop result.
func NewCheckReport(target CheckTarget, result readiness.Result) *CheckReport {
	r := &CheckReport{
		SocksAddress: target.SocksAddress,
		CheckURL:     target.CheckURL,
		Probe:        target.Probe,
		State:        result.State,
		MaxAttempts:  target.MaxAttempts,
		Attempts:     make([]AttemptReport, 0, len(result.Attempts)),
		Elapsed:      Duration(result.Elapsed),
		Interrupted:  result.Interrupted(),
	}
	for _, a := range result.Attempts {
		ar := AttemptReport{
			Seq:      a.Seq,
			Outcome:  a.Outcome,
			At:       a.At,
			Duration: Duration(a.Duration),
		}
		if a.Err != nil {
			ar.Error = a.Err.Error()
		}
		r.Attempts = append(r.Attempts, ar)
	}
	if len(result.Attempts) > 0 {
		r.CheckedAt = result.Attempts[0].At
	}
	return r
}

// Ready reports whether the check succeeded.
func (r *CheckReport) Ready() bool {
	return r.State == readiness.StateReady
}

// Failures returns the number of failed attempts.
func (r *CheckReport) Failures() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Outcome == readiness.OutcomeFailure {
			n++
		}
	}
	return n
}
