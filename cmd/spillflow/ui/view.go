package ui

// =============================================================================
// VIEW
// =============================================================================

// View renders the panel for the current flow position.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.done {
		if m.donePlan != "" {
			return m.styles.Screen.Render("All set — " + m.donePlan + " is active. Welcome aboard!\n")
		}
		return m.styles.Screen.Render("All set. Welcome aboard!\n")
	}

	switch {
	case m.ctrl.AtIntro():
		return m.frame(m.renderIntro())
	case m.ctrl.AtPaywall():
		return m.frame(m.renderPaywall())
	default:
		return m.frame(m.renderStep())
	}
}
