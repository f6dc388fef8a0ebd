package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule extracts raw dependency tokens from one file's text. Rules are
// independent pattern matchers, not parsers: false positives and missed
// non-standard syntax are acceptable. New language families are added by
// implementing this interface, without touching the graph or resolver.
type Rule interface {
	// Name identifies the rule in logs and reports
	Name() string

	// Tokens returns the raw tokens found in the text
	Tokens(text string) []string
}

var (
	// "import foo.bar" / "from foo.bar import baz" (Python and friends)
	importPattern = regexp.MustCompile(`(?m)(?:^|\s)(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)

	// from "…/…" or require('…/…') style quoted specifiers; the path
	// separator signals an internal reference, not a bare package name
	modulePathPattern = regexp.MustCompile(`['"]([^'"\s]+/[^'"\s]*)['"]`)

	urlPattern = regexp.MustCompile(`https?://[^\s"'<>)]+`)
)

// ImportRule captures the first path segment of import statements
type ImportRule struct{}

func (ImportRule) Name() string { return "import" }

func (ImportRule) Tokens(text string) []string {
	var tokens []string
	for _, match := range importPattern.FindAllStringSubmatch(text, -1) {
		for _, m := range match[1:] {
			if m == "" {
				continue
			}
			// Top-level module name only: "foo.bar.baz" -> "foo"
			if dot := strings.IndexByte(m, '.'); dot > 0 {
				m = m[:dot]
			}
			if m != "" {
				tokens = append(tokens, m)
			}
		}
	}
	return tokens
}

// ModulePathRule captures the leading segment of quoted import specifiers
// that contain a path separator
type ModulePathRule struct{}

func (ModulePathRule) Name() string { return "module-path" }

func (ModulePathRule) Tokens(text string) []string {
	var tokens []string
	for _, match := range modulePathPattern.FindAllStringSubmatch(text, -1) {
		spec := match[1]
		// URLs are handled by URLRule
		if strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://") {
			continue
		}
		segment := spec
		if slash := strings.IndexByte(spec, '/'); slash >= 0 {
			segment = spec[:slash]
		}
		segment = strings.TrimPrefix(segment, "@")
		if segment != "" && segment != "." && segment != ".." {
			tokens = append(tokens, segment)
		}
	}
	return tokens
}

// URLRule captures absolute HTTP(S) URLs verbatim
type URLRule struct{}

func (URLRule) Name() string { return "url" }

func (URLRule) Tokens(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// DefaultRules returns the standard rule set applied to every file
func DefaultRules() []Rule {
	return []Rule{ImportRule{}, ModulePathRule{}, URLRule{}}
}

// Extract runs all rules over the text and returns the deduplicated token
// set. Binary-looking input yields an empty set; extraction never fails.
func Extract(rules []Rule, text string) map[string]bool {
	tokens := make(map[string]bool)
	if text == "" || !looksLikeText(text) {
		return tokens
	}

	for _, rule := range rules {
		for _, token := range rule.Tokens(text) {
			tokens[token] = true
		}
	}
	return tokens
}

// looksLikeText rejects content that is clearly not source text: invalid
// UTF-8 or containing NUL bytes
func looksLikeText(s string) bool {
	if strings.IndexByte(s, 0) >= 0 {
		return false
	}
	return utf8.ValidString(s)
}
