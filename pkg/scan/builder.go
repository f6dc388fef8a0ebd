package scan

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/impactlens/impact-analyzer/pkg/extract"
	"github.com/impactlens/impact-analyzer/pkg/graph"
	"github.com/impactlens/impact-analyzer/pkg/logging"
	"github.com/impactlens/impact-analyzer/pkg/model"
)

// MatchMode selects how a dependency token is matched against service names
type MatchMode string

const (
	// MatchSubstring matches when a token contains a service name anywhere.
	// Permissive: tokens are unnormalized paths and URLs that may embed a
	// service name between other segments. May overcount when one service
	// name is a substring of another.
	MatchSubstring MatchMode = "substring"

	// MatchSegment matches only when a whole path segment of the token
	// equals the service name. Stricter, fewer false positives.
	MatchSegment MatchMode = "segment"
)

// Builder scans service files and assembles the weighted dependency graph
type Builder struct {
	rules   []extract.Rule
	mode    MatchMode
	workers int
}

// NewBuilder creates a Builder with the given match mode. workers <= 0
// defaults to the number of CPUs.
func NewBuilder(mode MatchMode, workers int) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if mode != MatchSegment {
		mode = MatchSubstring
	}
	return &Builder{
		rules:   extract.DefaultRules(),
		mode:    mode,
		workers: workers,
	}
}

// edgeKey identifies one directed edge during accumulation
type edgeKey struct {
	source string
	target string
}

// fileJob is one unit of scan work
type fileJob struct {
	service string
	path    string
}

// Build extracts dependency tokens from every file of every service and
// returns the directed weighted service graph. Edge weight counts how many
// distinct (file, token) references from the source resolved to the target;
// a token matching several services strengthens every matching edge.
//
// File reads and extraction run on a worker pool. Each worker accumulates
// a private partial edge map; the partials are summed in a single-threaded
// merge so weight increments need no locking on the hot path.
func (b *Builder) Build(ctx context.Context, services []*model.Service) *graph.ServiceGraph {
	sg := graph.NewServiceGraph()
	names := make([]string, 0, len(services))
	for _, svc := range services {
		sg.AddService(svc)
		names = append(names, svc.Name)
	}

	jobs := make(chan fileJob)
	var (
		mu       sync.Mutex
		partials []map[edgeKey]int
	)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < b.workers; i++ {
		g.Go(func() error {
			partial := make(map[edgeKey]int)
			for job := range jobs {
				b.scanFile(job, names, partial)
			}
			mu.Lock()
			partials = append(partials, partial)
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for _, svc := range services {
			for _, path := range svc.Files {
				select {
				case jobs <- fileJob{service: svc.Name, path: path}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logging.Warn("scan interrupted, graph may be partial", "error", err)
	}

	// Single-owner reduction: sum all partial edge maps into the graph
	for _, partial := range partials {
		for key, weight := range partial {
			sg.AddReference(key.source, key.target, weight)
		}
	}

	logging.Debug("dependency graph built",
		"services", len(services), "edges", sg.EdgeCount())
	return sg
}

// scanFile extracts tokens from one file and records edge contributions in
// the worker's partial map. Unreadable or non-text files are skipped.
func (b *Builder) scanFile(job fileJob, names []string, partial map[edgeKey]int) {
	content, err := os.ReadFile(job.path)
	if err != nil {
		logging.Debug("skipping unreadable file", "path", job.path, "error", err)
		return
	}

	tokens := extract.Extract(b.rules, string(content))
	for token := range tokens {
		for _, name := range names {
			if name == job.service {
				continue
			}
			if b.matches(token, name) {
				partial[edgeKey{source: job.service, target: name}]++
			}
		}
	}
}

// matches tests one token against one service name under the configured mode
func (b *Builder) matches(token, name string) bool {
	switch b.mode {
	case MatchSegment:
		if token == name {
			return true
		}
		for _, segment := range strings.Split(token, "/") {
			if segment == name {
				return true
			}
		}
		return false
	default:
		return strings.Contains(token, name)
	}
}
