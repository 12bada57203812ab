// Package ui hosts the onboarding flow in a bubbletea program: panels for
// the intro, content steps, and paywall, a spill progress bar paced by the
// flow's animation duration, and key routing into the flow controller and
// purchase orchestrator.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"spillflow/internal/theme"
)

// Styles holds the lipgloss styles derived from one resolved theme. They
// are built once per theme change, not per frame.
type Styles struct {
	Screen lipgloss.Style

	IntroTitle    lipgloss.Style
	IntroSubtitle lipgloss.Style

	StepLabel       lipgloss.Style
	StepTitle       lipgloss.Style
	StepDescription lipgloss.Style

	PrimaryButton   lipgloss.Style
	SecondaryButton lipgloss.Style

	PlanRow         lipgloss.Style
	PlanRowSelected lipgloss.Style
	PlanPrice       lipgloss.Style
	HelperText      lipgloss.Style

	ImageBox lipgloss.Style
	Modal    lipgloss.Style
	Status   lipgloss.Style
}

// NewStyles derives the style set from a resolved theme.
func NewStyles(t theme.Theme) Styles {
	return Styles{
		Screen: lipgloss.NewStyle().
			Padding(t.Insets.Top, t.Insets.Right, t.Insets.Bottom, t.Insets.Left),

		IntroTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Texts.Primary).
			MarginBottom(1),
		IntroSubtitle: lipgloss.NewStyle().
			Foreground(t.Texts.Secondary).
			MarginBottom(1),

		StepLabel: lipgloss.NewStyle().
			Foreground(t.Backgrounds.Primary).
			Bold(true),
		StepTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Texts.Primary).
			MarginBottom(1),
		StepDescription: lipgloss.NewStyle().
			Foreground(t.Texts.Primary),

		PrimaryButton: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Texts.Contrast).
			Background(t.Backgrounds.Primary).
			Padding(0, 3),
		SecondaryButton: lipgloss.NewStyle().
			Foreground(t.Texts.Secondary).
			Padding(0, 1),

		PlanRow: lipgloss.NewStyle().
			Foreground(t.Texts.Primary).
			Padding(0, 1),
		PlanRowSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Texts.Contrast).
			Background(t.Backgrounds.Primary).
			Padding(0, 1),
		PlanPrice: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Backgrounds.Accent),
		HelperText: lipgloss.NewStyle().
			Foreground(t.Texts.Secondary).
			Italic(true),

		ImageBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Backgrounds.Label).
			Padding(0, 1),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(t.Backgrounds.Primary).
			Padding(1, 2),
		Status: lipgloss.NewStyle().
			Foreground(t.Texts.Secondary).
			MarginTop(1),
	}
}
