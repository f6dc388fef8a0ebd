package model

import "sort"

// RiskTier classifies the blast radius of a change
type RiskTier string

const (
	RiskNone   RiskTier = "NONE"
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// rank orders tiers for comparison (NONE < LOW < MEDIUM < HIGH)
var rank = map[RiskTier]int{
	RiskNone:   0,
	RiskLow:    1,
	RiskMedium: 2,
	RiskHigh:   3,
}

// AtLeast reports whether t is equal to or above other
func (t RiskTier) AtLeast(other RiskTier) bool {
	return rank[t] >= rank[other]
}

// Service represents a discovered unit of code ownership: one top-level
// directory meeting the naming convention, plus the source files it owns.
type Service struct {
	Name  string   `json:"name"`
	Dir   string   `json:"dir"`
	Files []string `json:"files,omitempty"`
}

// OwnsFile reports whether the service owns a file matching the given path.
// Matching is by exact path or path suffix so that repo-relative paths from
// CI match the absolute paths produced by discovery.
func (s *Service) OwnsFile(path string) bool {
	if path == "" {
		return false
	}
	for _, f := range s.Files {
		if f == path || hasPathSuffix(f, path) {
			return true
		}
	}
	return false
}

// hasPathSuffix reports whether owned ends with path at a separator boundary
func hasPathSuffix(owned, path string) bool {
	if len(owned) <= len(path) {
		return false
	}
	if owned[len(owned)-len(path):] != path {
		return false
	}
	sep := owned[len(owned)-len(path)-1]
	return sep == '/' || sep == '\\'
}

// EdgeWeight is one outgoing dependency edge with its accumulated weight
type EdgeWeight struct {
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// ServiceDeps is the serialized per-service view of the dependency graph
type ServiceDeps struct {
	Service string       `json:"service"`
	Files   int          `json:"files"`
	Deps    []EdgeWeight `json:"deps"`
}

// ImpactReport is the structured output of one analysis run. It is
// constructed once by the resolver and read-only thereafter.
type ImpactReport struct {
	Title        string        `json:"title"`
	ChangedFiles []string      `json:"changed_files"`
	Direct       []string      `json:"direct"`
	Indirect     []string      `json:"indirect"`
	Unattributed []string      `json:"unattributed,omitempty"`
	Risk         RiskTier      `json:"risk"`
	Graph        []ServiceDeps `json:"graph"`
}

// SortSets normalizes the impact sets for stable serialization
func (r *ImpactReport) SortSets() {
	sort.Strings(r.Direct)
	sort.Strings(r.Indirect)
	sort.Strings(r.Unattributed)
}
