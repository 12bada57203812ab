package ui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"spillflow/internal/config"
	"spillflow/internal/plans"
	"spillflow/internal/purchase"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages and key presses into the flow controller.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if w := msg.Width - 10; w > 10 && w < 60 {
			m.spill.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.display = plans.Reconcile(m.planCfg, m.snapshot.Entries, m.cfg.ResolvedPlatform())
		if m.selected >= len(m.display) {
			m.selected = 0
		}
		return m, m.waitForSnapshot()

	case reloadMsg:
		return m.applyReload(msg.cfg)

	case purchaseMsg:
		m.purchasing = false
		if msg.result.Status == purchase.StatusError {
			// The user stays on the paywall and can retry.
			m.status = "Purchase failed: " + msg.result.Err.Error()
			return m, nil
		}
		m.status = ""
		// The settled purchase closes the flow the same way the free path
		// does: the controller records the selection and completion before
		// the completion callback quits the program.
		m.ctrl.Complete(msg.result.PlanID)
		return m.afterMove()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		updated, cmd := m.spill.Update(msg)
		m.spill = updated.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		return m.handleContinue()

	case "esc":
		if m.purchasing {
			return m, nil
		}
		if !m.ctrl.HandleHardwareBack() {
			// At the intro the platform default applies, which for a
			// terminal is leaving the program.
			m.quitting = true
			return m, tea.Quit
		}
		return m.afterMove()

	case "up", "k":
		if m.ctrl.AtPaywall() && m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.ctrl.AtPaywall() && m.selected < len(m.display)-1 {
			m.selected++
		}
		return m, nil

	case "s":
		if !m.ctrl.AtPaywall() {
			m.ctrl.Skip()
			if m.events.skipped {
				m.quitting = true
				return m, tea.Quit
			}
		}
		return m, nil

	case "r":
		if m.ctrl.AtPaywall() {
			m.sink.Record("restore_purchases", nil)
			m.status = "Restore requested."
		}
		return m, nil

	case "t":
		if m.ctrl.AtPaywall() {
			m.sink.Record("terms_pressed", nil)
			m.status = "Opening terms of service."
		}
		return m, nil

	case "p":
		if m.ctrl.AtPaywall() {
			m.sink.Record("privacy_pressed", nil)
			m.status = "Opening privacy policy."
		}
		return m, nil

	case "x":
		if m.ctrl.AtPaywall() && m.cfg.CloseButtonEnabled() && !m.purchasing {
			m.orch.Close(purchase.Hooks{OnClose: func() {}})
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

// handleContinue is the primary action for every panel.
func (m Model) handleContinue() (tea.Model, tea.Cmd) {
	switch {
	case m.ctrl.AtIntro():
		m.ctrl.Start()
		return m.afterMove()

	case m.ctrl.AtPaywall():
		if m.purchasing {
			return m, nil
		}
		planID := ""
		if m.selected < len(m.display) {
			planID = m.display[m.selected].ID
		}
		if !m.planCfg.HasIAP() {
			m.ctrl.Complete(planID)
			return m.afterMove()
		}
		m.purchasing = true
		m.status = ""
		m.log.Debug("purchase requested", zap.String("plan_id", planID))
		return m, m.purchaseCmd(planID)

	default:
		m.ctrl.Next()
		return m.afterMove()
	}
}

// afterMove reacts to whatever the last controller call did: completion,
// paywall entry (arming the catalog fetch), and the spill animation.
func (m Model) afterMove() (tea.Model, tea.Cmd) {
	if m.events.completed {
		m.done = true
		m.donePlan = m.events.planID
		return m, tea.Quit
	}

	cmds := []tea.Cmd{m.spill.SetPercent(m.spillPercent())}

	if m.ctrl.AtPaywall() && !m.armed {
		m.armed = true
		m.snapshot.Loading = true
		m.fetcher.Arm(m.cfg.SKUs())
		if len(m.display) == 0 {
			m.display = plans.Reconcile(m.planCfg, nil, m.cfg.ResolvedPlatform())
		}
	}
	return m, tea.Batch(cmds...)
}

// applyReload swaps in a hot-reloaded configuration. A changed SKU set
// re-arms the catalog fetch; everything else takes effect on the next
// render.
func (m Model) applyReload(cfg *config.FlowConfig) (tea.Model, tea.Cmd) {
	oldSKUs := m.cfg.SKUs()
	m.cfg = cfg
	m.planCfg = cfg.PlanConfig()
	m.styles = NewStyles(cfg.ResolveTheme(themeInsets()))
	m.display = plans.Reconcile(m.planCfg, m.snapshot.Entries, cfg.ResolvedPlatform())
	if m.selected >= len(m.display) {
		m.selected = 0
	}

	if m.armed && !equalSKUs(oldSKUs, cfg.SKUs()) {
		m.log.Info("SKU set changed, re-arming catalog fetch")
		m.snapshot.Loading = true
		m.fetcher.Arm(cfg.SKUs())
	}
	return m, m.waitForReload()
}

func equalSKUs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
