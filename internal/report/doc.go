// Package report renders the result of a readiness check.
//
// Three formats are supported: plain text for terminals and container
// health checks, JSON for tooling, and Markdown for pasting into issues.
// All writers take the same CheckReport built from a readiness.Result.
package report
