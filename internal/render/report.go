package render

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"powersim/domain/result"
)

// ReportMarkdown renders a finished run as a Markdown document: the
// scalar report as a table, plus failure accounting when relevant.
func ReportMarkdown(record *result.RunRecord) string {
	var b strings.Builder
	report := record.Report

	fmt.Fprintf(&b, "# Simulation run %s\n\n", record.ID)
	fmt.Fprintf(&b, "Created: %s\n\n", record.CreatedAt)

	b.WriteString("| Statistic | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Power | %.4f |\n", report.Power)
	fmt.Fprintf(&b, "| Mean width | %.4f |\n", report.MeanWidth)
	fmt.Fprintf(&b, "| Median width | %.4f |\n", report.MedianWidth)
	fmt.Fprintf(&b, "| Width q90 | %.4f |\n", report.WidthQ90)
	if report.ProportionBelow != nil {
		fmt.Fprintf(&b, "| Proportion below threshold | %.4f |\n", *report.ProportionBelow)
	}
	fmt.Fprintf(&b, "| Failure rate | %.4f |\n", report.FailureRate)
	fmt.Fprintf(&b, "| Replications | %d |\n", report.Replications)
	fmt.Fprintf(&b, "| Completed | %d |\n", report.Completed)
	fmt.Fprintf(&b, "| Succeeded | %d |\n", report.Succeeded)

	if report.Partial() {
		fmt.Fprintf(&b, "\n**Partial run**: %d of %d replications completed.\n",
			report.Completed, report.Replications)
	}
	if report.Excluded > 0 {
		fmt.Fprintf(&b, "\n%d failed replication(s) excluded from criterion evaluation:\n\n", report.Excluded)
		for _, r := range record.Results {
			if r.Failed {
				fmt.Fprintf(&b, "- replication %d (seed %d): %s\n", r.Index, r.Seed, r.FailureReason)
			}
		}
	}
	return b.String()
}

// ReportHTML renders the Markdown report to HTML
func ReportHTML(record *result.RunRecord) []byte {
	md := []byte(ReportMarkdown(record))
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(md, p, renderer)
}
