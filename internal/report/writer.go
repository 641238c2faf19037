package report

import (
	"io"
)

// Writer renders a CheckReport.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *CheckReport) (int, error)
}

// Format names an output format.
type Format string

const (
	// FormatText is plain text.
	FormatText Format = "text"
	// FormatJSON is indented JSON.
	FormatJSON Format = "json"
	// FormatMarkdown is GitHub-flavored Markdown.
	FormatMarkdown Format = "markdown"
)

// NewWriter returns the writer for format. Unknown formats get the text writer.
func NewWriter(format Format, output io.Writer, verbose bool) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output, WithVerbose(verbose))
	}
}

// baseWriter holds the output destination shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
