package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/impactlens/impact-analyzer/pkg/logging"
	"github.com/impactlens/impact-analyzer/pkg/model"
)

// Options configures service discovery
type Options struct {
	// Prefixes a top-level directory name must start with to qualify
	// as a service (e.g. "ui-", "crud-")
	Prefixes []string

	// Extensions is the allow-list of source file extensions,
	// including the dot (e.g. ".py", ".ts")
	Extensions []string

	// Excludes are glob patterns matched against directory names
	// during traversal (e.g. "node_modules", ".*")
	Excludes []string
}

// Discoverer finds service directories under a root and enumerates
// their source files
type Discoverer struct {
	root     string
	opts     Options
	excludes []glob.Glob
}

// New creates a Discoverer for the given root directory. Invalid exclude
// patterns are skipped with a warning rather than failing discovery.
func New(root string, opts Options) *Discoverer {
	var excludes []glob.Glob
	for _, pattern := range opts.Excludes {
		g, err := glob.Compile(pattern)
		if err != nil {
			logging.Warn("invalid exclude pattern, skipping", "pattern", pattern, "error", err)
			continue
		}
		excludes = append(excludes, g)
	}

	return &Discoverer{root: root, opts: opts, excludes: excludes}
}

// Discover lists the immediate subdirectories of the root and returns one
// Service per qualifying directory with its owned source files. A missing
// or unreadable root is not an error: it yields an empty service list so
// the analysis can still produce a report.
func (d *Discoverer) Discover() []*model.Service {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		logging.Warn("cannot read root directory, no services found", "root", d.root, "error", err)
		return nil
	}

	var services []*model.Service
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !d.isServiceName(name) {
			continue
		}

		dir := filepath.Join(d.root, name)
		files := d.collectFiles(dir)
		services = append(services, &model.Service{
			Name:  name,
			Dir:   dir,
			Files: files,
		})
	}

	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services
}

// isServiceName reports whether a directory name matches one of the
// configured service prefixes
func (d *Discoverer) isServiceName(name string) bool {
	for _, prefix := range d.opts.Prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// collectFiles walks a service directory and returns the files whose
// extension is in the allow-list. Directories named in the exclude
// patterns are pruned. Symlinked directories are tracked by resolved
// path so cycles terminate.
func (d *Discoverer) collectFiles(dir string) []string {
	visited := make(map[string]bool)
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		visited[real] = true
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Skip unreadable entries, not the whole service
			logging.Debug("skipping unreadable path", "path", path, "error", err)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			name := entry.Name()
			if name == ".git" || d.isExcluded(name) {
				return filepath.SkipDir
			}
			if path != dir {
				real, err := filepath.EvalSymlinks(path)
				if err != nil {
					return filepath.SkipDir
				}
				if visited[real] {
					return filepath.SkipDir
				}
				visited[real] = true
			}
			return nil
		}

		if d.hasAllowedExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		logging.Warn("walk failed for service directory", "dir", dir, "error", err)
	}

	return files
}

func (d *Discoverer) isExcluded(name string) bool {
	for _, g := range d.excludes {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (d *Discoverer) hasAllowedExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, allowed := range d.opts.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
