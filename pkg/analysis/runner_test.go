package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/impactlens/impact-analyzer/pkg/config"
	"github.com/impactlens/impact-analyzer/pkg/model"
)

func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"ui-checkout/src/cart.ts":    `import { db } from "crud-ms-checkout-db/client";`,
		"crud-ms-checkout-db/app.py": `import psycopg2`,
	}
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return &config.Config{
		Root:       root,
		Prefixes:   "ui-,crud-",
		Extensions: ".py,.ts",
		Mode:       "substring",
		Title:      "checkout fix",
		Changed:    "ui-checkout/src/cart.ts",
	}
}

func TestRunEndToEnd(t *testing.T) {
	runner := NewRunner(fixtureConfig(t), nil, nil)

	result, err := runner.Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rep := result.Report
	if len(rep.Direct) != 1 || rep.Direct[0] != "ui-checkout" {
		t.Errorf("direct = %v, want [ui-checkout]", rep.Direct)
	}
	if len(rep.Indirect) != 1 || rep.Indirect[0] != "crud-ms-checkout-db" {
		t.Errorf("indirect = %v, want [crud-ms-checkout-db]", rep.Indirect)
	}
	if rep.Risk != model.RiskMedium {
		t.Errorf("risk = %s, want MEDIUM", rep.Risk)
	}
	if !strings.Contains(result.Markdown, "# Impact Analysis Report") {
		t.Error("markdown report missing")
	}
	// No generators configured: the placeholder stands in for the narrative
	if !result.Narrative.Failed {
		t.Error("narrative should report failure with no generators")
	}
	if !strings.Contains(result.Markdown, "Narrative enrichment unavailable") {
		t.Error("markdown should carry the narrative placeholder")
	}

	if services := runner.Services(); len(services) != 2 {
		t.Errorf("Services() = %d, want 2", len(services))
	}
}

func TestRunMissingRootStillReports(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Root = filepath.Join(cfg.Root, "does-not-exist")

	result, err := runOnce(t, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v, missing root is not fatal", err)
	}
	if result.Report.Risk != model.RiskNone {
		t.Errorf("risk = %s, want NONE with no services", result.Report.Risk)
	}
	if strings.TrimSpace(result.Markdown) == "" {
		t.Error("report must never be empty")
	}
}

func TestRunInvalidConfigRendersFailure(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Extensions = ""

	result, err := runOnce(t, cfg)
	if err == nil {
		t.Fatal("expected error for config without extensions")
	}
	if !strings.Contains(result.Markdown, "Analysis failed") {
		t.Errorf("failure must still render a report, got:\n%s", result.Markdown)
	}
}

func runOnce(t *testing.T, cfg *config.Config) (*Result, error) {
	t.Helper()
	return NewRunner(cfg, nil, nil).Run(context.Background(), "test")
}
