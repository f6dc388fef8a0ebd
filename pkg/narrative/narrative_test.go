package narrative

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/impactlens/impact-analyzer/pkg/model"
)

// stubGenerator is a canned Generator for chain tests
type stubGenerator struct {
	name string
	text string
	err  error
}

func (s stubGenerator) Name() string { return s.name }

func (s stubGenerator) Generate(ctx context.Context, report *model.ImpactReport) (string, error) {
	return s.text, s.err
}

func testReport() *model.ImpactReport {
	return &model.ImpactReport{
		Title:        "fix checkout flow",
		ChangedFiles: []string{"ui-checkout/src/cart.ts"},
		Direct:       []string{"ui-checkout"},
		Indirect:     []string{"crud-ms-checkout-db"},
		Risk:         model.RiskMedium,
	}
}

func TestChainFirstGeneratorWins(t *testing.T) {
	chain := NewChain(
		stubGenerator{name: "primary", text: "primary analysis"},
		stubGenerator{name: "fallback", text: "fallback analysis"},
	)

	result := chain.Enrich(context.Background(), testReport())

	if result.Failed {
		t.Fatalf("unexpected failure: %s", result.Reason)
	}
	if result.Markdown != "primary analysis" || result.Source != "primary" {
		t.Errorf("got %q from %q, want primary", result.Markdown, result.Source)
	}
}

func TestChainFallsBack(t *testing.T) {
	chain := NewChain(
		stubGenerator{name: "primary", err: fmt.Errorf("quota exceeded")},
		stubGenerator{name: "fallback", text: "fallback analysis"},
	)

	result := chain.Enrich(context.Background(), testReport())

	if result.Failed {
		t.Fatalf("unexpected failure: %s", result.Reason)
	}
	if result.Source != "fallback" {
		t.Errorf("source = %q, want fallback", result.Source)
	}
}

func TestChainEmptyOutputIsFailure(t *testing.T) {
	chain := NewChain(
		stubGenerator{name: "primary", text: "   \n"},
		stubGenerator{name: "fallback", text: "real content"},
	)

	result := chain.Enrich(context.Background(), testReport())

	if result.Source != "fallback" {
		t.Errorf("blank output should fall through, got source %q", result.Source)
	}
}

func TestChainTotalFailureYieldsPlaceholder(t *testing.T) {
	chain := NewChain(
		stubGenerator{name: "primary", err: fmt.Errorf("down")},
		stubGenerator{name: "fallback", err: fmt.Errorf("also down")},
	)

	result := chain.Enrich(context.Background(), testReport())

	if !result.Failed {
		t.Fatal("expected failure result")
	}
	if result.Markdown != Placeholder {
		t.Errorf("markdown = %q, want placeholder", result.Markdown)
	}
	if !strings.Contains(result.Reason, "primary") || !strings.Contains(result.Reason, "fallback") {
		t.Errorf("reason should name both generators: %q", result.Reason)
	}
}

func TestChainNoGenerators(t *testing.T) {
	result := NewChain().Enrich(context.Background(), testReport())

	if !result.Failed || result.Markdown != Placeholder {
		t.Errorf("empty chain should yield the placeholder, got %+v", result)
	}
}

func TestBuildPromptContainsReport(t *testing.T) {
	prompt := buildPrompt(testReport())

	for _, want := range []string{
		"fix checkout flow",
		"ui-checkout/src/cart.ts",
		"crud-ms-checkout-db",
		"MEDIUM",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
