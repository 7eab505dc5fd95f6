// Package display renders targets and plan sections for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/nutriplan/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#52525b")).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa")).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))
)

// ── Targets ──────────────────────────────────────────────────────

// TargetsCard renders the daily targets as a bordered card.
func TargetsCard(t domain.NutritionTargets) string {
	rows := []struct{ label, value string }{
		{"Calories", fmt.Sprintf("%d kcal", t.TargetCalories)},
		{"Protein", fmt.Sprintf("%d g", t.ProteinG)},
		{"Carbohydrates", fmt.Sprintf("%d g", t.CarbsG)},
		{"Fats", fmt.Sprintf("%d g", t.FatG)},
		{"Water", fmt.Sprintf("%.2f L", t.WaterLiters)},
		{"BMR", fmt.Sprintf("%.2f kcal", t.BMR)},
		{"TDEE", fmt.Sprintf("%d kcal", t.TDEE)},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Daily Targets"))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(valueStyle.Render(r.value))
	}
	b.WriteString("\n\n")
	b.WriteString(secondaryStyle.Render("adjusted for " + t.Goal))

	return cardStyle.Render(b.String())
}

// ── Markdown ─────────────────────────────────────────────────────

// Markdown renders md for a terminal of the given width. If the renderer
// fails the raw markdown is returned so the plan is never lost.
func Markdown(md string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Notice renders a dimmed one-line note, e.g. that the fallback plan was
// used.
func Notice(msg string) string {
	return secondaryStyle.Render(msg)
}

// Alert renders an error line.
func Alert(msg string) string {
	return urgentStyle.Render(msg)
}
