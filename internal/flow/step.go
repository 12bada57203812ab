// Package flow implements the onboarding flow state machine: a position
// cursor over intro, content steps, and an optional terminal paywall, with
// the transition rules, naming, analytics, and image selection the panels
// hang off of. The machine is headless; animation interpolation and
// rendering belong to the host.
package flow

// Placement positions a step's image relative to its content.
type Placement string

const (
	PlacementTop    Placement = "top"
	PlacementBottom Placement = "bottom"
)

// StepContext is handed to custom step renderers so they can drive the
// flow themselves.
type StepContext struct {
	Next   func()
	Back   func()
	IsLast bool
}

// Step is one onboarding step. A step with a Render callback is fully
// custom; otherwise the static content fields feed the default step panel.
// The step list is immutable once the flow starts.
type Step struct {
	Label       string
	Title       string
	Description string
	ButtonLabel string

	// Render, when set, replaces the default panel for this step.
	Render func(StepContext) string

	Image    string
	Position Placement

	// ShowBackButton overrides the flow-wide back button setting for this
	// step; nil inherits.
	ShowBackButton *bool
	BackButtonIcon string
}

// IntroProps are the default intro panel's inputs.
type IntroProps struct {
	Title    string
	Subtitle string
	Button   string
	Image    string
}

// IntroContext is handed to custom intro renderers.
type IntroContext struct {
	Start func()
}

// IntroPanel is the intro panel source: exactly one of Static or Render is
// set, and the host dispatches on the variant instead of probing for
// callables at render time.
type IntroPanel struct {
	Static *IntroProps
	Render func(IntroContext) string
}
