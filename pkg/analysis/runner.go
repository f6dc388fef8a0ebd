package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/impactlens/impact-analyzer/pkg/config"
	"github.com/impactlens/impact-analyzer/pkg/discover"
	"github.com/impactlens/impact-analyzer/pkg/graph"
	"github.com/impactlens/impact-analyzer/pkg/impact"
	"github.com/impactlens/impact-analyzer/pkg/logging"
	"github.com/impactlens/impact-analyzer/pkg/model"
	"github.com/impactlens/impact-analyzer/pkg/narrative"
	"github.com/impactlens/impact-analyzer/pkg/report"
	"github.com/impactlens/impact-analyzer/pkg/scan"
	"github.com/impactlens/impact-analyzer/pkg/web"
)

const totalSteps = 5

// Runner orchestrates one analysis pass: discover services, build the
// dependency graph, resolve impact, enrich with narrative, render and
// deliver the report
type Runner struct {
	cfg     *config.Config
	server  *web.Server // nil in CLI mode
	chain   *narrative.Chain
	tracker *report.TrackerClient
	mu      sync.Mutex // Prevent concurrent analysis runs

	services []*model.Service // From the most recent run
}

// Result bundles everything one analysis run produced
type Result struct {
	Report    *model.ImpactReport
	Graph     *graph.ServiceGraph
	Narrative narrative.Result
	Markdown  string
}

// NewRunner creates a Runner. server may be nil for CLI mode; chain may be
// empty when narrative enrichment is disabled.
func NewRunner(cfg *config.Config, server *web.Server, chain *narrative.Chain) *Runner {
	if chain == nil {
		chain = narrative.NewChain()
	}
	return &Runner{
		cfg:     cfg,
		server:  server,
		chain:   chain,
		tracker: report.NewTrackerClient(cfg.Tracker, cfg.Token),
	}
}

// Run executes the full analysis. Per-file and per-service failures are
// contained inside the components; even a fundamentally unusable
// configuration yields a rendered failure report rather than a silent
// abort.
func (r *Runner) Run(ctx context.Context, reason string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logging.Info("starting analysis", "reason", reason, "root", r.cfg.Root)
	start := time.Now()

	if err := r.cfg.Validate(); err != nil {
		r.publishStatus("error", err.Error(), 1, totalSteps)
		return &Result{
			Markdown: report.RenderFailure(r.cfg.Title, err),
		}, fmt.Errorf("impossible configuration: %w", err)
	}

	// Phase 1: Discovery
	r.publishStatus("discovering", "Discovering services...", 1, totalSteps)
	d := discover.New(r.cfg.Root, discover.Options{
		Prefixes:   r.cfg.PrefixList(),
		Extensions: r.cfg.ExtensionList(),
		Excludes:   r.cfg.ExcludeList(),
	})
	services := d.Discover()
	r.services = services
	logging.Info("discovery complete", "services", len(services))

	// Phase 2: Scan and graph build
	r.publishStatus("scanning", "Scanning files and building dependency graph...", 2, totalSteps)
	builder := scan.NewBuilder(scan.MatchMode(r.cfg.Mode), r.cfg.Workers)
	sg := builder.Build(ctx, services)
	logging.Info("graph build complete", "edges", sg.EdgeCount())

	// Phase 3: Impact resolution
	r.publishStatus("resolving", "Resolving impact sets...", 3, totalSteps)
	resolver := impact.NewResolver(impact.Thresholds{
		HighIndirect:   r.cfg.Indirect,
		HighEdgeWeight: r.cfg.Weight,
	})
	rep := resolver.Resolve(sg, r.cfg.Title, r.cfg.ChangedList())
	logging.Info("impact resolved",
		"direct", len(rep.Direct), "indirect", len(rep.Indirect), "risk", rep.Risk)

	if r.server != nil {
		r.server.SetReport(rep)
	}

	// Phase 4: Narrative enrichment, best-effort
	r.publishStatus("enriching", "Generating narrative...", 4, totalSteps)
	enrichment := r.chain.Enrich(ctx, rep)
	if enrichment.Failed {
		logging.Info("narrative enrichment unavailable", "reason", enrichment.Reason)
	}

	// Phase 5: Render and deliver
	r.publishStatus("rendering", "Rendering report...", 5, totalSteps)
	markdown := report.RenderMarkdown(rep, enrichment.Markdown, time.Now())
	if err := r.tracker.Deliver(ctx, markdown); err != nil {
		logging.Warn("report delivery failed", "error", err)
	}

	if r.server != nil {
		r.server.PublishReportSummary(rep, sg.EdgeCount())
	}
	r.publishStatus("complete", "Analysis complete", totalSteps, totalSteps)
	logging.Info("analysis complete", "durationMs", time.Since(start).Milliseconds())

	return &Result{
		Report:    rep,
		Graph:     sg,
		Narrative: enrichment,
		Markdown:  markdown,
	}, nil
}

// Services returns the services found by the most recent run
func (r *Runner) Services() []*model.Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.services
}

func (r *Runner) publishStatus(state, message string, step, total int) {
	if r.server == nil {
		return
	}
	if err := r.server.PublishStatus(state, message, step, total); err != nil {
		logging.Debug("failed to publish status", "error", err)
	}
}
