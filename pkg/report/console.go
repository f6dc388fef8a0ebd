package report

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/impactlens/impact-analyzer/pkg/model"
)

// PrintSummary prints a colorized blast-radius summary to the console
func PrintSummary(root string, report *model.ImpactReport) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("Impact Analyzer - Blast Radius Report")
	bold.Println("=====================================")
	fmt.Printf("Root: %s\n", root)
	fmt.Printf("Services: %d\n", len(report.Graph))
	fmt.Printf("Changed files: %d\n", len(report.ChangedFiles))
	fmt.Println()

	if len(report.Direct) > 0 {
		yellow.Println("DIRECTLY IMPACTED:")
		for _, svc := range report.Direct {
			fmt.Printf("  %s\n", svc)
		}
	} else {
		green.Println("No services directly impacted")
	}

	if len(report.Indirect) > 0 {
		cyan.Println("INDIRECTLY IMPACTED:")
		for _, svc := range report.Indirect {
			fmt.Printf("  %s\n", svc)
		}
	}

	if len(report.Unattributed) > 0 {
		fmt.Println()
		fmt.Printf("Unattributed changed files: %d (no owning service)\n", len(report.Unattributed))
	}

	fmt.Println()
	tierColor := green
	switch report.Risk {
	case model.RiskMedium:
		tierColor = yellow
	case model.RiskHigh:
		tierColor = red
	}
	tierColor.Printf("Risk tier: %s\n", report.Risk)
}
