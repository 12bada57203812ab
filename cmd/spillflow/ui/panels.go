package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"spillflow/internal/flow"
	"spillflow/internal/plans"
	"spillflow/internal/theme"
)

// renderMarkdown renders step descriptions through glamour, falling back to
// the raw text when rendering fails (narrow terminals, odd input).
func renderMarkdown(body string, width int, name theme.Name) string {
	style := glamour.WithStandardStyle("light")
	if name == theme.Dark {
		style = glamour.WithStandardStyle("dark")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return body
	}
	out, err := r.Render(body)
	if err != nil {
		return body
	}
	return strings.TrimRight(out, "\n")
}

// renderImageBox draws the image placeholder frame. Terminals do not show
// the asset itself; the frame carries its name so layouts stay honest.
func (m Model) renderImageBox() string {
	path, ok := m.ctrl.Image()
	if !ok {
		return ""
	}
	return m.styles.ImageBox.Render("[ " + path + " ]")
}

func (m Model) renderIntro() string {
	if m.intro.Render != nil {
		return m.intro.Render(flow.IntroContext{Start: m.ctrl.Start})
	}

	props := flow.IntroProps{}
	if m.intro.Static != nil {
		props = *m.intro.Static
	}
	title := props.Title
	if title == "" {
		title = "Welcome"
	}
	button := props.Button
	if button == "" {
		button = "Get Started"
	}

	var b strings.Builder
	if img := m.renderImageBox(); img != "" {
		b.WriteString(img + "\n\n")
	}
	b.WriteString(m.styles.IntroTitle.Render(title) + "\n")
	if props.Subtitle != "" {
		b.WriteString(m.styles.IntroSubtitle.Render(props.Subtitle) + "\n")
	}
	b.WriteString("\n" + m.styles.PrimaryButton.Render(button))
	if m.skipButton != nil {
		b.WriteString("\n" + m.skipButton())
	}
	b.WriteString(m.styles.Status.Render("\nenter to begin, s to skip, q to quit"))
	return b.String()
}

func (m Model) renderStep() string {
	step, ok := m.ctrl.CurrentStep()
	if !ok {
		return ""
	}
	if step.Render != nil {
		return step.Render(flow.StepContext{
			Next:   m.ctrl.Next,
			Back:   m.ctrl.Back,
			IsLast: m.ctrl.IsLastStep(),
		})
	}

	var b strings.Builder
	img := m.renderImageBox()
	if img != "" && step.Position != flow.PlacementBottom {
		b.WriteString(img + "\n\n")
	}
	if step.Label != "" {
		b.WriteString(m.styles.StepLabel.Render(step.Label) + "\n")
	}
	if step.Title != "" {
		b.WriteString(m.styles.StepTitle.Render(step.Title) + "\n")
	}
	if step.Description != "" {
		b.WriteString(renderMarkdown(step.Description, m.contentWidth(), m.cfg.Theme) + "\n")
	}
	if img != "" && step.Position == flow.PlacementBottom {
		b.WriteString("\n" + img + "\n")
	}

	button := step.ButtonLabel
	if button == "" {
		button = "Continue"
	}
	b.WriteString("\n" + m.styles.PrimaryButton.Render(button))

	hints := []string{"enter to continue"}
	if m.backEnabled(step) {
		icon := step.BackButtonIcon
		if icon == "" {
			icon = m.cfg.BackButtonIcon
		}
		if icon == "" {
			icon = "esc"
		}
		hints = append(hints, icon+" to go back")
	}
	hints = append(hints, "s to skip")
	b.WriteString(m.styles.Status.Render("\n" + strings.Join(hints, ", ")))
	return b.String()
}

func (m Model) renderPaywall() string {
	var b strings.Builder

	title := "Choose a plan"
	restore := "Restore"
	var terms, privacy string
	if m.cfg.Paywall != nil {
		if m.cfg.Paywall.Title != "" {
			title = m.cfg.Paywall.Title
		}
		if m.cfg.Paywall.RestoreText != "" {
			restore = m.cfg.Paywall.RestoreText
		}
		terms = m.cfg.Paywall.TermsText
		privacy = m.cfg.Paywall.PrivacyText
	}
	b.WriteString(m.styles.StepTitle.Render(title) + "\n")

	if m.snapshot.Loading {
		b.WriteString(fmt.Sprintf("\n%s fetching plans...\n", m.spin.View()))
	}

	if len(m.display) == 0 && !m.snapshot.Loading {
		b.WriteString("\n" + m.styles.HelperText.Render("No plans available.") + "\n")
	}
	for i, p := range m.display {
		b.WriteString("\n" + m.renderPlanRow(p, i == m.selected))
	}

	if m.purchasing {
		b.WriteString(fmt.Sprintf("\n\n%s processing purchase...", m.spin.View()))
	} else {
		b.WriteString("\n\n" + m.styles.PrimaryButton.Render("Continue"))
	}

	footer := []string{"r " + restore}
	if terms != "" {
		footer = append(footer, "t "+terms)
	}
	if privacy != "" {
		footer = append(footer, "p "+privacy)
	}
	if m.cfg.CloseButtonEnabled() {
		footer = append(footer, "x close")
	}
	b.WriteString(m.styles.Status.Render("\n↑/↓ select, enter to continue, " + strings.Join(footer, ", ")))
	return b.String()
}

func (m Model) renderPlanRow(p plans.DisplayPlan, selected bool) string {
	row := m.styles.PlanRow
	if selected {
		row = m.styles.PlanRowSelected
	}

	line := p.Title
	if p.Interval != "" {
		line += " / " + p.Interval
	}
	rendered := row.Render(line) + "  " + m.styles.PlanPrice.Render(p.Price)
	if p.HelperText != "" {
		rendered += "\n   " + m.styles.HelperText.Render(p.HelperText)
	}
	if len(p.Features) > 0 && selected {
		for _, f := range p.Features {
			rendered += "\n   " + m.styles.StepDescription.Render("• "+f)
		}
	}
	return rendered
}

// frame wraps the panel body with the spill progress bar and, on web with
// the modal option set, a modal border.
func (m Model) frame(body string) string {
	var b strings.Builder
	if !m.ctrl.AtIntro() {
		b.WriteString(m.spill.View() + "\n\n")
	}
	b.WriteString(body)
	if m.status != "" {
		b.WriteString(m.styles.Status.Render("\n" + m.status))
	}

	out := m.styles.Screen.Render(b.String())
	if m.background != nil {
		out = m.background(out)
	}
	if m.wrapInModal() {
		out = m.styles.Modal.Render(out)
		if m.width > 0 {
			out = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, out)
		}
	}
	return out
}
