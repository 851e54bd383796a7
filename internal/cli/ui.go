package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/autotag/pkg/pipeline"
	"github.com/matzehuels/autotag/pkg/scene"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError     = lipgloss.NewStyle().Foreground(colorRed)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func (c *CLI) printSuccess(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printError(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func (c *CLI) printWarning(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (c *CLI) printInfo(format string, args ...any) {
	fmt.Fprintln(c.Out, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func (c *CLI) printDetail(format string, args ...any) {
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (c *CLI) printFile(path string) {
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func (c *CLI) printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(c.Out, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

func (c *CLI) printNextStep(description, cmd string) {
	fmt.Fprintln(c.Out, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Run Summaries
// =============================================================================

// printStats prints run statistics on a single line.
func (c *CLI) printStats(s pipeline.Stats, cached bool) {
	parts := []string{
		fmt.Sprintf("%d elements", s.Elements),
		fmt.Sprintf("%d placed", s.Placed),
	}
	if n := s.Skipped(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if s.Filtered > 0 {
		parts = append(parts, fmt.Sprintf("%d filtered", s.Filtered))
	}

	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	rendered := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		rendered = append(rendered, StyleDim.Render(p))
	}
	rendered = append(rendered, statusStyle.Render(status))
	fmt.Fprintln(c.Out, "  "+strings.Join(rendered, StyleDim.Render(" · ")))
}

// printSkips lists skipped elements grouped by reason.
func (c *CLI) printSkips(res *pipeline.Result) {
	byReason := map[pipeline.SkipReason][]string{}
	for _, r := range res.Results {
		if !r.Placed() {
			byReason[r.Skip] = append(byReason[r.Skip], r.ElementID)
		}
	}
	for _, reason := range []pipeline.SkipReason{pipeline.SkipInvalidGeometry, pipeline.SkipMissingLocation, pipeline.SkipUnhandled} {
		ids := byReason[reason]
		if len(ids) == 0 {
			continue
		}
		c.printDetail("%s: %s", reason, truncateList(ids, 8))
	}
}

// printFindings prints validation findings, errors first.
func (c *CLI) printFindings(fs scene.Findings) {
	for _, f := range fs.Errors() {
		c.printError("%s", findingText(f))
	}
	for _, f := range fs.Warnings() {
		c.printWarning("%s", findingText(f))
	}
}

func findingText(f scene.Finding) string {
	if f.ElementID == "" {
		return f.Message
	}
	return f.ElementID + ": " + f.Message
}

func truncateList(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s, ... (%d more)", strings.Join(items[:max], ", "), len(items)-max)
}
