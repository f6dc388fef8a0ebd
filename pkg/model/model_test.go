package model

import "testing"

func TestOwnsFile(t *testing.T) {
	svc := &Service{
		Name: "ui-checkout",
		Dir:  "/repo/ui-checkout",
		Files: []string{
			"/repo/ui-checkout/src/app/cart.ts",
			"/repo/ui-checkout/config.yml",
		},
	}

	cases := []struct {
		name string
		path string
		want bool
	}{
		{"exact match", "/repo/ui-checkout/src/app/cart.ts", true},
		{"suffix match", "ui-checkout/src/app/cart.ts", true},
		{"suffix match short", "cart.ts", true},
		{"no match", "ui-checkout/src/app/other.ts", false},
		{"partial segment does not match", "rt.ts", false},
		{"empty path", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := svc.OwnsFile(tc.path); got != tc.want {
				t.Errorf("OwnsFile(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestRiskTierAtLeast(t *testing.T) {
	if !RiskHigh.AtLeast(RiskLow) {
		t.Error("HIGH should be at least LOW")
	}
	if !RiskMedium.AtLeast(RiskMedium) {
		t.Error("MEDIUM should be at least MEDIUM")
	}
	if RiskNone.AtLeast(RiskLow) {
		t.Error("NONE should not be at least LOW")
	}
	if RiskLow.AtLeast(RiskHigh) {
		t.Error("LOW should not be at least HIGH")
	}
}

func TestSortSets(t *testing.T) {
	report := &ImpactReport{
		Direct:   []string{"b-svc", "a-svc"},
		Indirect: []string{"z-svc", "c-svc"},
	}
	report.SortSets()

	if report.Direct[0] != "a-svc" || report.Direct[1] != "b-svc" {
		t.Errorf("Direct not sorted: %v", report.Direct)
	}
	if report.Indirect[0] != "c-svc" {
		t.Errorf("Indirect not sorted: %v", report.Indirect)
	}
}
