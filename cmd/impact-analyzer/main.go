package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/impactlens/impact-analyzer/pkg/analysis"
	"github.com/impactlens/impact-analyzer/pkg/config"
	"github.com/impactlens/impact-analyzer/pkg/logging"
	"github.com/impactlens/impact-analyzer/pkg/narrative"
	"github.com/impactlens/impact-analyzer/pkg/report"
	"github.com/impactlens/impact-analyzer/pkg/watcher"
	"github.com/impactlens/impact-analyzer/pkg/web"
)

func main() {
	// Optional .env for local runs; CI provides real env vars
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("impact-analyzer", pflag.ExitOnError)
	flags.String("root", ".", "Root directory containing service checkouts")
	flags.String("prefixes", "", "Comma-separated service directory name prefixes")
	flags.String("extensions", "", "Comma-separated source file extensions")
	flags.String("excludes", "", "Comma-separated directory glob patterns to skip")
	flags.String("changed", "", "Changed file paths (comma separated)")
	flags.String("title", "", "PR title for the report")
	flags.String("mode", "substring", "Token matching mode: substring or segment")
	flags.Int("indirect", 3, "HIGH risk threshold for indirect impact set size")
	flags.Int("weight", 5, "HIGH risk threshold for direct edge weight")
	flags.Int("workers", 0, "Scan worker count (0 = number of CPUs)")
	flags.Bool("narrative", false, "Enable AI narrative enrichment")
	flags.String("openai", "", "OpenAI model name")
	flags.String("gemini", "", "Gemini model name")
	flags.String("tracker", "", "Tracker comments endpoint URL")
	flags.String("output", "-", "Markdown report destination ('-' for stdout)")
	flags.Bool("web", false, "Start web server instead of printing to console")
	flags.Int("port", 8080, "Port for web server (only used with --web)")
	flags.Bool("watch", false, "Re-run analysis when service sources change")
	flags.Bool("open", true, "Open browser in web mode")
	flags.String("verbosity", "", "Log level: debug, warn, error")
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(cfg.Verbosity, false)

	ctx := context.Background()
	chain := buildNarrativeChain(ctx, cfg)

	if cfg.WebMode {
		runWeb(ctx, cfg, chain)
		return
	}
	runCLI(ctx, cfg, chain)
}

// buildNarrativeChain wires the configured generators: OpenAI first,
// Gemini as fallback, mirroring the pipeline this tool replaces. A
// missing key just removes that generator from the chain.
func buildNarrativeChain(ctx context.Context, cfg *config.Config) *narrative.Chain {
	if !cfg.Narrative {
		return narrative.NewChain()
	}

	var generators []narrative.Generator
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		generators = append(generators, narrative.NewOpenAIGenerator(key, cfg.OpenAI))
	}
	if os.Getenv("GEMINI_API_KEY") != "" {
		gemini, err := narrative.NewGeminiGenerator(ctx, cfg.Gemini)
		if err != nil {
			logging.Warn("gemini generator unavailable", "error", err)
		} else {
			generators = append(generators, gemini)
		}
	}
	if len(generators) == 0 {
		logging.Warn("narrative enabled but no API keys configured")
	}
	return narrative.NewChain(generators...)
}

// runCLI performs one batch analysis and writes the outputs
func runCLI(ctx context.Context, cfg *config.Config, chain *narrative.Chain) {
	runner := analysis.NewRunner(cfg, nil, chain)

	result, err := runner.Run(ctx, "cli invocation")
	if err != nil {
		// Still emit the failure report before exiting non-zero
		writeMarkdown(cfg.Output, result.Markdown)
		logging.Fatal("analysis failed", "error", err)
	}

	report.PrintSummary(cfg.Root, result.Report)
	writeMarkdown(cfg.Output, result.Markdown)
}

// runWeb starts the dashboard, runs the analysis in the background, and
// optionally re-runs it on file changes
func runWeb(ctx context.Context, cfg *config.Config, chain *narrative.Chain) {
	server := web.NewServer()
	runner := analysis.NewRunner(cfg, server, chain)

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)

	go func() {
		if err := server.Start(cfg.Port); err != nil {
			logging.Fatal("failed to start web server", "error", err)
		}
	}()

	// Give the listener a moment before pointing a browser at it
	time.Sleep(500 * time.Millisecond)
	if cfg.OpenBrowser {
		openBrowser(url)
	}

	go func() {
		if _, err := runner.Run(ctx, "initial analysis"); err != nil {
			logging.Error("analysis failed", "error", err)
			return
		}
		if cfg.Watch {
			watchAndRerun(ctx, cfg, runner)
		}
	}()

	logging.Info("dashboard available", "url", url)
	select {}
}

// watchAndRerun re-runs the analysis whenever service sources change
func watchAndRerun(ctx context.Context, cfg *config.Config, runner *analysis.Runner) {
	services := runner.Services()
	if len(services) == 0 {
		logging.Warn("watch mode requested but no services discovered")
		return
	}

	sw, err := watcher.New(services, cfg.ExtensionList())
	if err != nil {
		logging.Error("failed to start watcher", "error", err)
		return
	}
	defer sw.Close()
	sw.Start(ctx)

	debouncer := watcher.NewDebouncer(sw.Events(), 2*time.Second, 10*time.Second)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		logging.Info("source changes detected, re-running analysis", "files", len(event.Paths))
		if _, err := runner.Run(ctx, "file change"); err != nil {
			logging.Error("re-analysis failed", "error", err)
		}
	}
}

// writeMarkdown writes the report to the configured destination
func writeMarkdown(dest, markdown string) {
	if dest == "" || dest == "-" {
		fmt.Println(markdown)
		return
	}
	if err := os.WriteFile(dest, []byte(markdown), 0o644); err != nil {
		logging.Error("failed to write report", "path", dest, "error", err)
		fmt.Println(markdown)
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on platform", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
