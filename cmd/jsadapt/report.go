package main

import (
	"fmt"
	"io"
	"time"

	"jsadapt/internal/adapt"

	"github.com/charmbracelet/lipgloss"
)

// Report styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a94a6"))
	idStyle     = lipgloss.NewStyle().Width(16)
)

// printReport writes one line per bundle.
func printReport(w io.Writer, runID string, r *adapt.Report) {
	fmt.Fprintln(w, headerStyle.Render("adapt run "+runID))
	for _, b := range r.Bundles {
		if b.Err != nil {
			fmt.Fprintf(w, "  %s %s %s\n", failStyle.Render("✗"), idStyle.Render(b.ID), failStyle.Render(b.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n", okStyle.Render("✓"), idStyle.Render(b.ID),
			mutedStyle.Render(fmt.Sprintf("%d modules  %v", len(b.References), b.Duration.Round(time.Millisecond))))
		for _, warning := range b.Warnings {
			fmt.Fprintf(w, "      %s\n", warnStyle.Render(warning.Error()))
		}
	}
	if r.Manifest != "" {
		fmt.Fprintln(w, mutedStyle.Render("manifest: "+r.Manifest))
	}
}
