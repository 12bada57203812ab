package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"spillflow/internal/analytics"
	"spillflow/internal/catalog"
	"spillflow/internal/config"
	"spillflow/internal/flow"
	"spillflow/internal/plans"
	"spillflow/internal/purchase"
	"spillflow/internal/theme"
)

// =============================================================================
// MODEL
// =============================================================================

// messages crossing into the event loop.
type (
	snapshotMsg struct{ snapshot catalog.Snapshot }
	purchaseMsg struct{ result purchase.Result }
	reloadMsg   struct{ cfg *config.FlowConfig }
)

// flowEvents collects controller callback effects. The controller invokes
// callbacks synchronously on the event loop, and the pointer survives the
// model's value copies between Update calls.
type flowEvents struct {
	completed bool
	planID    string
	skipped   bool
}

// Model is the bubbletea host for the onboarding flow.
type Model struct {
	cfg     *config.FlowConfig
	planCfg plans.Config
	intro   flow.IntroPanel

	ctrl    *flow.Controller
	fetcher *catalog.Fetcher
	orch    *purchase.Orchestrator
	sink    analytics.Sink
	log     *zap.Logger
	events  *flowEvents

	styles Styles
	spill  progress.Model
	spin   spinner.Model

	snapshot  catalog.Snapshot
	display   []plans.DisplayPlan
	selected  int
	armed     bool
	snapshots chan catalog.Snapshot
	reloads   chan *config.FlowConfig

	purchasing bool
	status     string
	done       bool
	donePlan   string
	quitting   bool

	skipButton func() string
	background func(body string) string

	width, height int
}

// Option customizes the host beyond what the flow file can express.
type Option func(*Model)

// WithSkipButtonRenderer replaces the default skip hint with a custom
// rendering.
func WithSkipButtonRenderer(fn func() string) Option {
	return func(m *Model) { m.skipButton = fn }
}

// WithBackgroundRenderer wraps every frame in a custom background.
func WithBackgroundRenderer(fn func(body string) string) Option {
	return func(m *Model) { m.background = fn }
}

// New assembles the host from a loaded configuration and the store bridge
// halves. sink and log may be nil.
func New(cfg *config.FlowConfig, bridge catalog.StoreBridge, store purchase.StoreClient, sink analytics.Sink, log *zap.Logger, opts ...Option) Model {
	if sink == nil {
		sink = analytics.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	events := &flowEvents{}
	ctrl := flow.New(flow.Config{
		Steps:             stepsFromConfig(cfg),
		Intro:             introFromConfig(cfg),
		Paywall:           cfg.Paywall != nil,
		AnimationDuration: cfg.AnimationDuration(),
		OnComplete: func(planID string) {
			events.completed = true
			events.planID = planID
		},
		OnSkip:    func() { events.skipped = true },
		Analytics: sink,
		Logger:    log,
	})

	snapshots := make(chan catalog.Snapshot, 16)
	fetcher := catalog.NewFetcher(bridge, func(s catalog.Snapshot) {
		snapshots <- s
	}, catalog.WithLogger(log))

	resolved := cfg.ResolveTheme(themeInsets())

	sp := progress.New(progress.WithSolidFill(string(resolved.Backgrounds.Primary)))
	sp.Width = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := Model{
		cfg:       cfg,
		planCfg:   cfg.PlanConfig(),
		intro:     introFromConfig(cfg),
		ctrl:      ctrl,
		fetcher:   fetcher,
		orch:      purchase.New(store, cfg.ResolvedPlatform(), sink, log),
		sink:      sink,
		log:       log,
		events:    events,
		styles:    NewStyles(resolved),
		spill:     sp,
		spin:      spin,
		snapshots: snapshots,
		reloads:   make(chan *config.FlowConfig, 4),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func stepsFromConfig(cfg *config.FlowConfig) []flow.Step {
	steps := make([]flow.Step, 0, len(cfg.Steps))
	for _, s := range cfg.Steps {
		steps = append(steps, flow.Step{
			Label:          s.Label,
			Title:          s.Title,
			Description:    s.Description,
			ButtonLabel:    s.ButtonLabel,
			Image:          s.Image,
			Position:       flow.Placement(s.Position),
			ShowBackButton: s.ShowBackButton,
			BackButtonIcon: s.BackButtonIcon,
		})
	}
	return steps
}

// themeInsets pads the flow away from the terminal edges.
func themeInsets() theme.Insets {
	return theme.Insets{Top: 1, Bottom: 1, Left: 2, Right: 2}
}

func introFromConfig(cfg *config.FlowConfig) flow.IntroPanel {
	return flow.IntroPanel{Static: &flow.IntroProps{
		Title:    cfg.Intro.Title,
		Subtitle: cfg.Intro.Subtitle,
		Button:   cfg.Intro.Button,
		Image:    cfg.Intro.Image,
	}}
}

// ApplyReload hands a hot-reloaded configuration to the running program.
// Safe to call from the watcher goroutine.
func (m Model) ApplyReload(cfg *config.FlowConfig) {
	select {
	case m.reloads <- cfg:
	default:
	}
}

// Fetcher exposes the catalog fetcher so main can tear it down on exit.
func (m Model) Fetcher() *catalog.Fetcher { return m.fetcher }

// Init starts the spinner; the catalog fetch waits for the paywall.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.waitForSnapshot(), m.waitForReload())
}

func (m Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg { return snapshotMsg{snapshot: <-m.snapshots} }
}

func (m Model) waitForReload() tea.Cmd {
	return func() tea.Msg { return reloadMsg{cfg: <-m.reloads} }
}

func (m Model) purchaseCmd(planID string) tea.Cmd {
	entries := m.snapshot.Entries
	hasIAP := m.planCfg.HasIAP()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		res := m.orch.Execute(ctx, planID, entries, hasIAP, purchase.Hooks{})
		return purchaseMsg{result: res}
	}
}

func (m Model) backEnabled(step flow.Step) bool {
	if step.ShowBackButton != nil {
		return *step.ShowBackButton
	}
	if m.cfg.ShowBackButton != nil {
		return *m.cfg.ShowBackButton
	}
	return true
}

func (m Model) wrapInModal() bool {
	return m.cfg.WrapInModalOnWeb && m.cfg.ResolvedPlatform() == "web"
}

func (m Model) contentWidth() int {
	w := m.width - 8
	if w <= 0 || w > 76 {
		w = 76
	}
	return w
}

// spillPercent maps the flow position onto the progress bar: zero at the
// intro, and the spill target scaled by step progress inside the flow.
func (m Model) spillPercent() float64 {
	target := m.ctrl.SpillTarget()
	if target == 0 {
		return 0
	}
	total := m.ctrl.StepCount()
	if m.cfg.Paywall != nil {
		total++
	}
	if total == 0 {
		return target
	}
	return target * float64(int(m.ctrl.Position())+1) / float64(total)
}
