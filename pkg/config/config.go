package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the application. List-valued settings
// are comma-separated strings so every source (toml, env, flags) can set
// them the same way; use the *List accessors to read them.
type Config struct {
	Root        string `koanf:"root"`       // Root directory containing service checkouts
	Prefixes    string `koanf:"prefixes"`   // Service directory name prefixes
	Extensions  string `koanf:"extensions"` // Source file extension allow-list
	Excludes    string `koanf:"excludes"`   // Directory glob patterns pruned during discovery
	Changed     string `koanf:"changed"`    // Changed file paths (comma or newline separated)
	Title       string `koanf:"title"`      // PR title for the report
	Mode        string `koanf:"mode"`       // Token matching: "substring" (default) or "segment"
	Indirect    int    `koanf:"indirect"`   // HIGH threshold: indirect impact set size
	Weight      int    `koanf:"weight"`     // HIGH threshold: direct edge weight
	Workers     int    `koanf:"workers"`    // Scan worker count (0 = NumCPU)
	Narrative   bool   `koanf:"narrative"`  // Enable AI narrative enrichment
	OpenAI      string `koanf:"openai"`     // OpenAI model name
	Gemini      string `koanf:"gemini"`     // Gemini model name
	Tracker     string `koanf:"tracker"`    // Tracker comments endpoint URL
	Token       string `koanf:"token"`      // Tracker auth token
	Output      string `koanf:"output"`     // Markdown report path ("-" = stdout)
	WebMode     bool   `koanf:"web"`
	Port        int    `koanf:"port"`
	Watch       bool   `koanf:"watch"`
	OpenBrowser bool   `koanf:"open"`
	Verbosity   string `koanf:"verbosity"`
}

// Load loads configuration from defaults, config file, environment
// variables, and flags. Priority: Flags > Env > Config File > Defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"root":       ".",
		"prefixes":   "ui-,crud-,domain-,fdr-,psg-,apigee-",
		"extensions": ".py,.ts,.js,.json,.yml,.yaml",
		"excludes":   "node_modules,.git,dist,build",
		"changed":    "",
		"title":      "",
		"mode":       "substring",
		"indirect":   3,
		"weight":     5,
		"workers":    0,
		"narrative":  false,
		"openai":     "gpt-4.1",
		"gemini":     "gemini-1.5-pro",
		"tracker":    "",
		"token":      "",
		"output":     "-",
		"web":        false,
		"port":       8080,
		"watch":      false,
		"open":       true,
		"verbosity":  "",
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - impact-analyzer.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider("impact-analyzer.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: IMPACT_ANALYZER_ (e.g., IMPACT_ANALYZER_PORT=9090)
	if err := k.Load(env.Provider("IMPACT_ANALYZER_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "IMPACT_ANALYZER_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// CI contract: the pipeline exports CHANGED_FILES and PR_TITLE
	if cfg.Changed == "" {
		cfg.Changed = os.Getenv("CHANGED_FILES")
	}
	if cfg.Title == "" {
		cfg.Title = os.Getenv("PR_TITLE")
	}

	return &cfg, nil
}

// Validate reports impossible configurations. An invalid config still
// results in a rendered failure report upstream, not a silent exit.
func (c *Config) Validate() error {
	if len(c.ExtensionList()) == 0 {
		return fmt.Errorf("no recognized file extensions configured")
	}
	if len(c.PrefixList()) == 0 {
		return fmt.Errorf("no service name prefixes configured")
	}
	if c.Mode != "substring" && c.Mode != "segment" {
		return fmt.Errorf("unknown match mode %q (want substring or segment)", c.Mode)
	}
	return nil
}

// PrefixList returns the service name prefixes
func (c *Config) PrefixList() []string {
	return splitList(c.Prefixes)
}

// ExtensionList returns the file extension allow-list
func (c *Config) ExtensionList() []string {
	return splitList(c.Extensions)
}

// ExcludeList returns the discovery exclude patterns
func (c *Config) ExcludeList() []string {
	return splitList(c.Excludes)
}

// ChangedList returns the changed file paths, split on commas and
// newlines the way the CI pipeline delivers them
func (c *Config) ChangedList() []string {
	return splitList(strings.ReplaceAll(c.Changed, "\n", ","))
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
