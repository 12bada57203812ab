package flow

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"spillflow/internal/analytics"
)

// Position addresses a location in the flow: PositionIntro, step indices
// 0..N-1, and N for the paywall. It always stays within [-1, N].
type Position int

// PositionIntro is the flow's starting position.
const PositionIntro Position = -1

// DefaultAnimationDuration is used when the embedder does not set one.
const DefaultAnimationDuration = 500 * time.Millisecond

// Change describes one committed transition. Names resolve to "Intro",
// "Paywall", the step's title, or a synthetic "Step {i+1}" for untitled
// steps.
type Change struct {
	FromIndex Position
	ToIndex   Position
	FromName  string
	ToName    string
}

// Config wires a Controller.
type Config struct {
	Steps []Step
	Intro IntroPanel

	// Paywall marks whether a paywall panel is configured; position N is
	// reachable only when it is.
	Paywall bool

	// AnimationDuration paces the spill animation. Zero means
	// DefaultAnimationDuration.
	AnimationDuration time.Duration

	// OnComplete is invoked when the flow finishes: with the selected
	// plan id from the paywall, or with an empty id when the last step
	// completes a paywall-less flow.
	OnComplete func(planID string)

	// OnSkip is the caller's skip handler; the machine never moves the
	// position for a skip.
	OnSkip func()

	// OnStepChange observes committed transitions.
	OnStepChange func(Change)

	Analytics analytics.Sink
	Logger    *zap.Logger
}

// Controller is the flow state machine. It is single-owner state: all
// methods must be called from the host's event loop.
type Controller struct {
	cfg   Config
	pos   Position
	spill float64
}

// New builds a controller positioned at the intro.
func New(cfg Config) *Controller {
	if cfg.AnimationDuration <= 0 {
		cfg.AnimationDuration = DefaultAnimationDuration
	}
	if cfg.Analytics == nil {
		cfg.Analytics = analytics.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Controller{cfg: cfg, pos: PositionIntro}
}

// Position returns the current cursor.
func (c *Controller) Position() Position { return c.pos }

// StepCount returns N, the number of configured steps.
func (c *Controller) StepCount() int { return len(c.cfg.Steps) }

// AtIntro reports whether the flow is on the intro panel.
func (c *Controller) AtIntro() bool { return c.pos == PositionIntro }

// AtPaywall reports whether the flow is on the paywall panel.
func (c *Controller) AtPaywall() bool {
	return c.cfg.Paywall && int(c.pos) == len(c.cfg.Steps)
}

// CurrentStep returns the step under the cursor, if the cursor is on one.
func (c *Controller) CurrentStep() (Step, bool) {
	if c.pos < 0 || int(c.pos) >= len(c.cfg.Steps) {
		return Step{}, false
	}
	return c.cfg.Steps[c.pos], true
}

// IsLastStep reports whether the cursor is on the final content step.
func (c *Controller) IsLastStep() bool {
	return len(c.cfg.Steps) > 0 && int(c.pos) == len(c.cfg.Steps)-1
}

// SpillTarget is the value the host should animate the spill progress
// toward, over AnimationDuration.
func (c *Controller) SpillTarget() float64 { return c.spill }

// AnimationDuration returns the configured transition pacing.
func (c *Controller) AnimationDuration() time.Duration { return c.cfg.AnimationDuration }

// Start begins the flow from the intro: the spill animates to 1 and the
// cursor moves to the first step (or straight to the paywall when no
// steps are configured). Valid only at the intro.
func (c *Controller) Start() {
	if c.pos != PositionIntro {
		c.cfg.Logger.Debug("start ignored outside intro", zap.Int("position", int(c.pos)))
		return
	}
	if len(c.cfg.Steps) == 0 && !c.cfg.Paywall {
		c.cfg.Logger.Warn("flow has no steps and no paywall, completing immediately")
		c.complete("")
		return
	}
	c.spill = 1
	c.moveTo(0)
}

// Next advances from the current step. On the last step it moves to the
// paywall when one is configured; otherwise it completes the flow with no
// plan id and the position stays put — ownership passes to the caller.
func (c *Controller) Next() {
	switch {
	case c.pos == PositionIntro, c.AtPaywall():
		c.cfg.Logger.Debug("next ignored", zap.Int("position", int(c.pos)))
	case int(c.pos) == len(c.cfg.Steps)-1:
		if c.cfg.Paywall {
			c.moveTo(Position(len(c.cfg.Steps)))
			return
		}
		c.complete("")
	default:
		c.moveTo(c.pos + 1)
	}
}

// Back retreats one position. From step 0 the spill animates back to 0
// and the cursor returns to the intro; at the intro it is a no-op so the
// platform default applies.
func (c *Controller) Back() {
	switch {
	case c.pos == PositionIntro:
	case c.pos == 0:
		c.spill = 0
		c.moveTo(PositionIntro)
	default:
		c.moveTo(c.pos - 1)
	}
}

// HandleHardwareBack routes the platform back affordance. It reports
// false at the intro, declining to intercept so the platform default
// applies.
func (c *Controller) HandleHardwareBack() bool {
	if c.pos == PositionIntro {
		return false
	}
	c.Back()
	return true
}

// Skip signals skip intent to the caller. The machine does not move.
func (c *Controller) Skip() {
	if c.cfg.OnSkip != nil {
		c.cfg.OnSkip()
	}
}

// Complete finishes the flow from the paywall with the selected plan id,
// firing the selection and completion analytics before the caller's
// completion handler.
func (c *Controller) Complete(planID string) {
	c.cfg.Analytics.Record("paywall_select", map[string]any{"plan_id": planID})
	c.complete(planID)
}

func (c *Controller) complete(planID string) {
	meta := map[string]any{}
	if planID != "" {
		meta["plan_id"] = planID
	}
	c.cfg.Analytics.Record("complete", meta)
	if c.cfg.OnComplete != nil {
		c.cfg.OnComplete(planID)
	}
}

// StepName resolves the human-readable name for a position.
func (c *Controller) StepName(p Position) string {
	switch {
	case p == PositionIntro:
		return "Intro"
	case int(p) == len(c.cfg.Steps):
		return "Paywall"
	case p < 0 || int(p) > len(c.cfg.Steps):
		return "Unknown"
	}
	if title := c.cfg.Steps[p].Title; title != "" {
		return title
	}
	return fmt.Sprintf("Step %d", int(p)+1)
}

// Image returns the asset the image container should show for the current
// position. The paywall manages its own imagery, so ok is false there;
// the intro uses its static image when one is configured and falls back
// to the first step's.
func (c *Controller) Image() (string, bool) {
	if c.AtPaywall() {
		return "", false
	}
	if c.pos == PositionIntro {
		if p := c.cfg.Intro.Static; p != nil && p.Image != "" {
			return p.Image, true
		}
		if len(c.cfg.Steps) > 0 && c.cfg.Steps[0].Image != "" {
			return c.cfg.Steps[0].Image, true
		}
		return "", false
	}
	if step, ok := c.CurrentStep(); ok && step.Image != "" {
		return step.Image, true
	}
	return "", false
}

// moveTo commits a transition and then emits the step-change notification
// and analytics, exactly once, in that order. Analytics is fire-and-forget
// and can never affect navigation.
func (c *Controller) moveTo(to Position) {
	from := c.pos
	c.pos = to

	change := Change{
		FromIndex: from,
		ToIndex:   to,
		FromName:  c.StepName(from),
		ToName:    c.StepName(to),
	}
	c.cfg.Logger.Debug("step change",
		zap.String("from", change.FromName),
		zap.String("to", change.ToName),
		zap.Int("index", int(to)))

	if c.cfg.OnStepChange != nil {
		c.cfg.OnStepChange(change)
	}
	c.cfg.Analytics.Record("step_change", map[string]any{
		"from_index": int(change.FromIndex),
		"to_index":   int(change.ToIndex),
		"from_step":  change.FromName,
		"to_step":    change.ToName,
	})
}
