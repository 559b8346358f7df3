package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/k8s-versions/k8s-versions/pkg/types"
)

var (
	// Style colors
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	success   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#FFA500", Dark: "#FFB347"}
	errorClr  = lipgloss.AdaptiveColor{Light: "#FF5555", Dark: "#FF6666"}
	dim       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}

	// Text styles (no boxes)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	successStyle = lipgloss.NewStyle().Foreground(success)
	warningStyle = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(errorClr).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(dim)
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// isTerminal reports whether styled output should be used.
var isTerminal = func() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd())) || term.IsTerminal(int(os.Stderr.Fd()))
}

// DisableColor forces plain output regardless of the attached terminal.
func DisableColor() {
	isTerminal = func() bool { return false }
}

// RenderSummary renders the status counts of an analysis.
func RenderSummary(namespace string, s types.Summary) string {
	if !isTerminal() {
		return renderSummaryPlain(namespace, s)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("📊 Version analysis: "+namespace) + "\n")
	b.WriteString("   ")
	b.WriteString(boldStyle.Render(fmt.Sprintf("%d total", s.Total)))
	b.WriteString(dimStyle.Render("  ·  "))
	b.WriteString(successStyle.Render(fmt.Sprintf("✓ %d up-to-date", s.UpToDate)))
	b.WriteString(dimStyle.Render("  ·  "))
	b.WriteString(warningStyle.Render(fmt.Sprintf("▲ %d outdated", s.Outdated)))
	b.WriteString(dimStyle.Render("  ·  "))
	b.WriteString(dimStyle.Render(fmt.Sprintf("? %d unknown", s.Unknown)))
	b.WriteString("\n")
	return b.String()
}

func renderSummaryPlain(namespace string, s types.Summary) string {
	return fmt.Sprintf("Namespace: %s\nTotal: %d  Up-to-date: %d  Outdated: %d  Unknown: %d\n",
		namespace, s.Total, s.UpToDate, s.Outdated, s.Unknown)
}

// RenderRecommendations renders advice lines. Empty input renders nothing.
func RenderRecommendations(recs []string) string {
	if len(recs) == 0 {
		return ""
	}
	if !isTerminal() {
		var b strings.Builder
		b.WriteString("Recommendations:\n")
		for _, r := range recs {
			b.WriteString(fmt.Sprintf("  - %s\n", r))
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("💡 Recommendations") + "\n")
	for _, r := range recs {
		b.WriteString("   " + r + "\n")
	}
	return b.String()
}

// RenderComparison renders the result of comparing two versions.
func RenderComparison(c *types.VersionComparison) string {
	if !isTerminal() {
		return renderComparisonPlain(c)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🔀 "+c.Component) + "\n")
	b.WriteString("   ")
	b.WriteString(boldStyle.Render(c.CurrentVersion))
	b.WriteString(" → ")
	b.WriteString(boldStyle.Render(c.TargetVersion))
	b.WriteString("  ")
	b.WriteString(relationStyled(c.Comparison))
	b.WriteString("\n   " + c.Recommendation + "\n")

	if len(c.BreakingChanges) > 0 {
		b.WriteString(titleStyle.Render("⚠️  Breaking changes") + "\n")
		for _, line := range c.BreakingChanges {
			b.WriteString("   " + warningStyle.Render(line) + "\n")
		}
	}
	b.WriteString(titleStyle.Render("🚀 Migration steps") + "\n")
	for _, step := range c.MigrationSteps {
		b.WriteString("   " + dimStyle.Render(step) + "\n")
	}
	return b.String()
}

func renderComparisonPlain(c *types.VersionComparison) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: %s -> %s (%s)\n", c.Component, c.CurrentVersion, c.TargetVersion, c.Comparison))
	b.WriteString(c.Recommendation + "\n")
	if len(c.BreakingChanges) > 0 {
		b.WriteString("Breaking changes:\n")
		for _, line := range c.BreakingChanges {
			b.WriteString(fmt.Sprintf("  - %s\n", line))
		}
	}
	b.WriteString("Migration steps:\n")
	for _, step := range c.MigrationSteps {
		b.WriteString(fmt.Sprintf("  %s\n", step))
	}
	return b.String()
}

func relationStyled(r types.Relation) string {
	switch r {
	case types.RelationOlder:
		return warningStyle.Render("upgrade available")
	case types.RelationSame:
		return successStyle.Render("identical")
	case types.RelationNewer:
		return dimStyle.Render("ahead of target")
	default:
		return errorStyle.Render("not comparable")
	}
}

// RenderImageUpdate renders the newer tags found for an image.
func RenderImageUpdate(u *types.ImageUpdate) string {
	if !isTerminal() {
		return renderImageUpdatePlain(u)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("📦 "+u.Image) + "\n")
	switch {
	case u.Pinned:
		b.WriteString("   " + dimStyle.Render("Pinned by digest, tags not checked") + "\n")
	case len(u.NewerTags) == 0:
		b.WriteString("   " + successStyle.Render("✓ No newer tags than "+u.CurrentVersion) + "\n")
	default:
		b.WriteString("   ")
		b.WriteString(severityStyled(u.Severity))
		b.WriteString(fmt.Sprintf(" %s → %s\n", u.CurrentVersion, boldStyle.Render(u.LatestVersion)))
		b.WriteString("   " + dimStyle.Render("Newer: "+strings.Join(u.NewerTags, ", ")) + "\n")
	}
	return b.String()
}

func renderImageUpdatePlain(u *types.ImageUpdate) string {
	switch {
	case u.Pinned:
		return fmt.Sprintf("%s: pinned by digest\n", u.Image)
	case len(u.NewerTags) == 0:
		return fmt.Sprintf("%s: up-to-date (%s)\n", u.Image, u.CurrentVersion)
	default:
		sev := ""
		if u.Severity != "" {
			sev = fmt.Sprintf(" [%s]", u.Severity)
		}
		return fmt.Sprintf("%s: %s -> %s%s\n  newer tags: %s\n",
			u.Image, u.CurrentVersion, u.LatestVersion, sev, strings.Join(u.NewerTags, ", "))
	}
}

func severityStyled(s types.Severity) string {
	switch s {
	case types.SeverityCritical, types.SeverityHigh:
		return errorStyle.Render("▲ " + string(s))
	case types.SeverityMedium:
		return warningStyle.Render("▲ " + string(s))
	case types.SeverityLow:
		return successStyle.Render("△ " + string(s))
	default:
		return warningStyle.Render("▲")
	}
}

// StatusIcon returns a one-rune marker for a component status.
func StatusIcon(s types.Status) string {
	switch s {
	case types.StatusUpToDate:
		return "✓"
	case types.StatusOutdated:
		return "▲"
	default:
		return "?"
	}
}

// ErrorInfo contains information about an error to display.
type ErrorInfo struct {
	Title   string
	Message string
	Hint    string
}

// RenderError renders an error message with colors.
func RenderError(info ErrorInfo) string {
	if !isTerminal() {
		return renderErrorPlain(info)
	}

	var b strings.Builder
	b.WriteString(errorStyle.Render("❌ "+info.Title) + "\n")
	b.WriteString("   ")
	b.WriteString(errorStyle.Render("✗ " + info.Message))
	b.WriteString("\n")

	if info.Hint != "" {
		b.WriteString("   ")
		b.WriteString(dimStyle.Render("💡 "+info.Hint) + "\n")
	}
	return b.String()
}

func renderErrorPlain(info ErrorInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Error: %s\n", info.Title))
	b.WriteString(fmt.Sprintf("  %s\n", info.Message))
	if info.Hint != "" {
		b.WriteString(fmt.Sprintf("  Hint: %s\n", info.Hint))
	}
	return b.String()
}
