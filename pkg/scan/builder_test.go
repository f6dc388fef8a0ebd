package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/impactlens/impact-analyzer/pkg/discover"
)

// fixtureRepo lays out a small multi-service checkout and returns the root
func fixtureRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"ui-checkout/src/cart.ts": `import { db } from "crud-ms-checkout-db/client";
const url = "https://api.internal/psg-payments/v1/charge";`,
		"ui-checkout/src/view.ts":    `import { db } from "crud-ms-checkout-db/client";`,
		"crud-ms-checkout-db/app.py": `import psycopg2`,
		"psg-payments/gateway.py":    `import os`,
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
	return root
}

func fixtureServices(t *testing.T, root string) *discover.Discoverer {
	t.Helper()
	return discover.New(root, discover.Options{
		Prefixes:   []string{"ui-", "crud-", "psg-"},
		Extensions: []string{".py", ".ts"},
	})
}

func TestBuildWeightsAndEdges(t *testing.T) {
	root := fixtureRepo(t)
	services := fixtureServices(t, root).Discover()

	sg := NewBuilder(MatchSubstring, 2).Build(context.Background(), services)

	// Two files each reference crud-ms-checkout-db once
	if got := sg.Weight("ui-checkout", "crud-ms-checkout-db"); got != 2 {
		t.Errorf("ui-checkout -> crud-ms-checkout-db weight = %d, want 2", got)
	}
	// The URL embeds psg-payments
	if got := sg.Weight("ui-checkout", "psg-payments"); got != 1 {
		t.Errorf("ui-checkout -> psg-payments weight = %d, want 1", got)
	}
	// Nothing references ui-checkout
	if got := len(sg.Dependencies("crud-ms-checkout-db")); got != 0 {
		t.Errorf("crud-ms-checkout-db has %d deps, want 0", got)
	}
}

func TestBuildNoSelfEdges(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "ui-checkout")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Relative import containing the service's own name
	content := `import { x } from "../ui-checkout/src/shared";`
	if err := os.WriteFile(filepath.Join(dir, "app.ts"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	services := fixtureServices(t, root).Discover()
	sg := NewBuilder(MatchSubstring, 1).Build(context.Background(), services)

	if got := sg.EdgeCount(); got != 0 {
		t.Errorf("self-import created %d edges, want 0", got)
	}
}

func TestBuildIdempotent(t *testing.T) {
	root := fixtureRepo(t)
	disc := fixtureServices(t, root)

	first := NewBuilder(MatchSubstring, 4).Build(context.Background(), disc.Discover())
	second := NewBuilder(MatchSubstring, 4).Build(context.Background(), disc.Discover())

	for _, source := range first.Services() {
		firstDeps := first.Dependencies(source)
		secondDeps := second.Dependencies(source)
		if len(firstDeps) != len(secondDeps) {
			t.Fatalf("service %s: %d vs %d deps across runs", source, len(firstDeps), len(secondDeps))
		}
		for i := range firstDeps {
			if firstDeps[i] != secondDeps[i] {
				t.Errorf("service %s dep %d: %v vs %v", source, i, firstDeps[i], secondDeps[i])
			}
		}
	}
}

func TestBuildTokenMatchesMultipleServices(t *testing.T) {
	root := t.TempDir()
	for _, svc := range []string{"ui-orders", "crud-auth", "crud-auth-db"} {
		if err := os.MkdirAll(filepath.Join(root, svc), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// "crud-auth-db" contains both "crud-auth" and "crud-auth-db"
	content := `import { client } from "crud-auth-db/client";`
	if err := os.WriteFile(filepath.Join(root, "ui-orders", "app.ts"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	services := fixtureServices(t, root).Discover()
	sg := NewBuilder(MatchSubstring, 1).Build(context.Background(), services)

	// Substring matching is permissive: one token strengthens both edges
	if got := sg.Weight("ui-orders", "crud-auth-db"); got != 1 {
		t.Errorf("ui-orders -> crud-auth-db weight = %d, want 1", got)
	}
	if got := sg.Weight("ui-orders", "crud-auth"); got != 1 {
		t.Errorf("ui-orders -> crud-auth weight = %d, want 1 under substring mode", got)
	}
}

func TestBuildSegmentMode(t *testing.T) {
	root := t.TempDir()
	for _, svc := range []string{"ui-orders", "crud-auth", "crud-auth-db"} {
		if err := os.MkdirAll(filepath.Join(root, svc), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	content := `import { client } from "crud-auth-db/client";`
	if err := os.WriteFile(filepath.Join(root, "ui-orders", "app.ts"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	services := fixtureServices(t, root).Discover()
	sg := NewBuilder(MatchSegment, 1).Build(context.Background(), services)

	// Segment matching is exact: only the full segment matches
	if got := sg.Weight("ui-orders", "crud-auth-db"); got != 1 {
		t.Errorf("ui-orders -> crud-auth-db weight = %d, want 1", got)
	}
	if got := sg.Weight("ui-orders", "crud-auth"); got != 0 {
		t.Errorf("ui-orders -> crud-auth weight = %d, want 0 under segment mode", got)
	}
}

func TestBuildSkipsUnreadableFiles(t *testing.T) {
	root := fixtureRepo(t)
	services := fixtureServices(t, root).Discover()

	// Point one owned file at a path that no longer exists
	services[0].Files = append(services[0].Files, filepath.Join(root, "gone.py"))

	sg := NewBuilder(MatchSubstring, 2).Build(context.Background(), services)
	if sg == nil {
		t.Fatal("builder should tolerate unreadable files")
	}
}
