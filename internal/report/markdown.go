package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report.
func (w *MarkdownWriter) Write(report *CheckReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Tor Readiness Check")
	md.PlainText("")
	w.writeAlert(md, report)
	w.writeSummary(md, report)
	w.writeAttempts(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *CheckReport) {
	switch {
	case report.Interrupted:
		md.Warningf("Check interrupted after %d attempt(s).", len(report.Attempts))
	case report.Ready():
		md.Tip(fmt.Sprintf("Tor is ready after %d attempt(s).", len(report.Attempts)))
	default:
		md.Cautionf("Tor is not ready after %d attempt(s).", len(report.Attempts))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *CheckReport) {
	checkedAt := "-"
	if !report.CheckedAt.IsZero() {
		checkedAt = report.CheckedAt.Format("2006-01-02 15:04:05 MST")
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Proxy", "`socks5h://" + report.SocksAddress + "`"},
			{"Check URL", "`" + report.CheckURL + "`"},
			{"Probe", report.Probe},
			{"State", string(report.State)},
			{"Attempts", strconv.Itoa(len(report.Attempts)) + "/" + strconv.Itoa(report.MaxAttempts)},
			{"Elapsed", report.Elapsed.String()},
			{"Checked At", checkedAt},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAttempts(md *markdown.Markdown, report *CheckReport) {
	md.H2("Attempts")
	md.PlainText("")

	if len(report.Attempts) == 0 {
		md.PlainText("No attempt was made.")
		return
	}

	rows := make([][]string, 0, len(report.Attempts))
	for _, a := range report.Attempts {
		errText := a.Error
		if errText == "" {
			errText = "-"
		}
		rows = append(rows, []string{strconv.Itoa(a.Seq), string(a.Outcome), a.Duration.String(), errText})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Outcome", "Duration", "Error"},
		Rows:   rows,
	})
	md.PlainText("")

	failures := report.Failures()
	if failures == 0 || failures == len(report.Attempts) {
		return
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Attempt Outcomes"),
		piechart.WithShowData(true),
	)
	chart.LabelAndIntValue("Success", uint64(len(report.Attempts)-failures)) //nolint:gosec // non-negative count
	chart.LabelAndIntValue("Failure", uint64(failures))                      //nolint:gosec // non-negative count
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}
