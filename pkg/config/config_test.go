package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Root != "." {
		t.Errorf("Root = %q, want .", cfg.Root)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Mode != "substring" {
		t.Errorf("Mode = %q, want substring", cfg.Mode)
	}
	if cfg.Indirect != 3 || cfg.Weight != 5 {
		t.Errorf("thresholds = %d/%d, want 3/5", cfg.Indirect, cfg.Weight)
	}

	prefixes := cfg.PrefixList()
	if len(prefixes) != 6 || prefixes[0] != "ui-" {
		t.Errorf("PrefixList() = %v", prefixes)
	}
	extensions := cfg.ExtensionList()
	if len(extensions) != 6 || extensions[0] != ".py" {
		t.Errorf("ExtensionList() = %v", extensions)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("IMPACT_ANALYZER_ROOT", "/repos")
	t.Setenv("IMPACT_ANALYZER_MODE", "segment")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Root != "/repos" {
		t.Errorf("Root = %q, want /repos", cfg.Root)
	}
	if cfg.Mode != "segment" {
		t.Errorf("Mode = %q, want segment", cfg.Mode)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("IMPACT_ANALYZER_ROOT", "/from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("root", ".", "")
	if err := flags.Parse([]string{"--root", "/from-flag"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Root != "/from-flag" {
		t.Errorf("Root = %q, flags must win over env", cfg.Root)
	}
}

func TestChangedFilesFromCIEnv(t *testing.T) {
	t.Setenv("CHANGED_FILES", "ui-a/x.ts,crud-b/y.py\npsg-c/z.py")
	t.Setenv("PR_TITLE", "fix everything")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	changed := cfg.ChangedList()
	want := []string{"ui-a/x.ts", "crud-b/y.py", "psg-c/z.py"}
	if len(changed) != len(want) {
		t.Fatalf("ChangedList() = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Errorf("ChangedList()[%d] = %q, want %q", i, changed[i], want[i])
		}
	}
	if cfg.Title != "fix everything" {
		t.Errorf("Title = %q", cfg.Title)
	}
}

func TestChangedListEmpty(t *testing.T) {
	cfg := &Config{Changed: " , \n "}
	if got := cfg.ChangedList(); len(got) != 0 {
		t.Errorf("ChangedList() = %v, want empty", got)
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Prefixes:   "ui-",
		Extensions: ".py",
		Mode:       "substring",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	cases := []struct {
		name string
		cfg  Config
	}{
		{"no extensions", Config{Prefixes: "ui-", Mode: "substring"}},
		{"no prefixes", Config{Extensions: ".py", Mode: "substring"}},
		{"bad mode", Config{Prefixes: "ui-", Extensions: ".py", Mode: "fuzzy"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
