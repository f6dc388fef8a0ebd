package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/impactlens/impact-analyzer/pkg/logging"
	"github.com/impactlens/impact-analyzer/pkg/model"
)

// Placeholder is substituted when no generator produces usable output.
// The core report is valid and complete without narrative enrichment.
const Placeholder = "_Narrative enrichment unavailable: the analysis below " +
	"was produced by the static scanner only._"

// Generator produces human-readable prose for an impact report. Any error
// is contained by the Chain; a generator failing never blocks the report.
type Generator interface {
	// Name identifies the generator in logs (e.g. "openai:gpt-4.1")
	Name() string

	// Generate returns markdown commentary for the report
	Generate(ctx context.Context, report *model.ImpactReport) (string, error)
}

// Result is the outcome of narrative enrichment
type Result struct {
	Markdown string // Always non-empty; Placeholder on failure
	Source   string // Name of the generator that produced the text
	Failed   bool
	Reason   string
}

// Chain tries each generator in order and returns the first non-empty
// result. Total failure yields the placeholder, never an error.
type Chain struct {
	generators []Generator
}

// NewChain creates a Chain over the given generators
func NewChain(generators ...Generator) *Chain {
	return &Chain{generators: generators}
}

// Enrich runs the chain. Never fails: the zero-generator case and the
// all-generators-failed case both return the placeholder result.
func (c *Chain) Enrich(ctx context.Context, report *model.ImpactReport) Result {
	var reasons []string
	for _, gen := range c.generators {
		text, err := gen.Generate(ctx, report)
		if err != nil {
			logging.Warn("narrative generator failed", "generator", gen.Name(), "error", err)
			reasons = append(reasons, fmt.Sprintf("%s: %v", gen.Name(), err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			logging.Warn("narrative generator returned empty output", "generator", gen.Name())
			reasons = append(reasons, gen.Name()+": empty output")
			continue
		}
		return Result{Markdown: text, Source: gen.Name()}
	}

	reason := "no generators configured"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}
	return Result{Markdown: Placeholder, Failed: true, Reason: reason}
}

// buildPrompt assembles the analysis prompt shared by all generators
func buildPrompt(report *model.ImpactReport) string {
	changed, _ := json.MarshalIndent(report.ChangedFiles, "", "  ")
	graph, _ := json.MarshalIndent(report.Graph, "", "  ")

	var b strings.Builder
	b.WriteString("You are an impact analysis engine. Analyze the pull request below.\n\n")
	fmt.Fprintf(&b, "Title: %s\n\n", report.Title)
	fmt.Fprintf(&b, "Changed Files:\n%s\n\n", changed)
	fmt.Fprintf(&b, "Directly impacted services: %s\n", strings.Join(report.Direct, ", "))
	fmt.Fprintf(&b, "Indirectly impacted services: %s\n", strings.Join(report.Indirect, ", "))
	fmt.Fprintf(&b, "Computed risk tier: %s\n\n", report.Risk)
	fmt.Fprintf(&b, "Service Dependency Graph:\n%s\n\n", graph)
	b.WriteString("TASKS:\n")
	b.WriteString("1. Explain the direct and downstream impact in plain language.\n")
	b.WriteString("2. Point out the riskiest dependency edges and why.\n")
	b.WriteString("3. Provide recommended testing steps.\n")
	b.WriteString("4. Provide recommended fixes or refactoring.\n")
	b.WriteString("5. Format the result in GitHub Markdown.\n")
	return b.String()
}
