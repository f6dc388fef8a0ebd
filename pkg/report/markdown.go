package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/impactlens/impact-analyzer/pkg/model"
)

// RenderMarkdown produces the full GitHub-flavored markdown report for an
// analysis run. The narrative section is whatever the enrichment step
// produced, placeholder included.
func RenderMarkdown(report *model.ImpactReport, narrative string, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# Impact Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: `%s UTC`\n\n", generatedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**PR Title:** %s\n\n", orDefault(report.Title, "(no PR title)"))
	fmt.Fprintf(&b, "**Risk Tier:** %s\n\n", report.Risk)

	if len(report.ChangedFiles) == 0 {
		b.WriteString("### No changed files found.\n")
		return SafeOutput(b.String())
	}

	b.WriteString("### Changed Files\n\n")
	for _, path := range report.ChangedFiles {
		fmt.Fprintf(&b, "- `%s`\n", path)
	}
	b.WriteString("\n")

	b.WriteString("### Impacted Services\n\n")
	fmt.Fprintf(&b, "- **Direct:** %s\n", listOrNone(report.Direct))
	fmt.Fprintf(&b, "- **Indirect:** %s\n", listOrNone(report.Indirect))
	if len(report.Unattributed) > 0 {
		fmt.Fprintf(&b, "- **Not attributed to any service (informational):** %s\n",
			codeList(report.Unattributed))
	}
	b.WriteString("\n")

	b.WriteString("### Microservice Dependency Summary\n\n")
	if len(report.Graph) == 0 {
		b.WriteString("No services discovered.\n")
	}
	for _, svc := range report.Graph {
		deps := make([]string, 0, len(svc.Deps))
		for _, dep := range svc.Deps {
			deps = append(deps, fmt.Sprintf("%s (%d)", dep.Target, dep.Weight))
		}
		fmt.Fprintf(&b, "- **%s** → depends on: %s\n", svc.Service, orDefault(strings.Join(deps, ", "), "None"))
	}
	b.WriteString("\n")

	b.WriteString("## AI Analysis\n\n")
	b.WriteString(narrative)
	b.WriteString("\n")

	return SafeOutput(b.String())
}

// RenderFailure produces a well-formed report describing a top-level
// failure, so the pipeline never terminates silently.
func RenderFailure(title string, err error) string {
	var b strings.Builder
	b.WriteString("# Impact Analysis Report\n\n")
	fmt.Fprintf(&b, "**PR Title:** %s\n\n", orDefault(title, "(no PR title)"))
	b.WriteString("### Analysis failed\n\n")
	fmt.Fprintf(&b, "```\n%v\n```\n", err)
	return b.String()
}

// SafeOutput guarantees a non-empty report body
func SafeOutput(text string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	return "# Impact Analysis Report\n" +
		"The analysis engine returned no data.\n" +
		"This may happen when no changes or no analyzable code exists.\n"
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return codeList(items)
}

func codeList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, "`"+item+"`")
	}
	return strings.Join(quoted, ", ")
}
