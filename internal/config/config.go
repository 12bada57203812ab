// Package config loads and validates the flow configuration file: the
// step list, intro panel, optional paywall, theming, and analytics
// settings an embedder would otherwise wire programmatically.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"spillflow/internal/plans"
	"spillflow/internal/platform"
	"spillflow/internal/theme"
)

// DefaultAnimationDurationMS paces transitions when the file omits one.
const DefaultAnimationDurationMS = 500

// IntroConfig is the static intro panel content.
type IntroConfig struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Button   string `yaml:"button"`
	Image    string `yaml:"image"`
}

// StepConfig is one onboarding step's static content.
type StepConfig struct {
	Label       string `yaml:"label"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	ButtonLabel string `yaml:"button_label"`
	Image       string `yaml:"image"`
	Position    string `yaml:"position"` // top or bottom

	// ShowBackButton overrides the flow-wide setting for this step.
	ShowBackButton *bool  `yaml:"show_back_button"`
	BackButtonIcon string `yaml:"back_button_icon"`
}

// PaywallConfig describes the terminal paywall panel.
type PaywallConfig struct {
	Title    string                `yaml:"title"`
	Products []plans.ProductConfig `yaml:"products"`
	Plans    []plans.Plan          `yaml:"plans"`

	RestoreText string `yaml:"restore_text"`
	TermsText   string `yaml:"terms_text"`
	PrivacyText string `yaml:"privacy_text"`
}

// FlowConfig is the top-level flow configuration surface.
type FlowConfig struct {
	AnimationDurationMS int   `yaml:"animation_duration_ms"`
	ShowBackButton      *bool `yaml:"show_back_button"`
	ShowCloseButton     *bool `yaml:"show_close_button"`
	WrapInModalOnWeb    bool  `yaml:"wrap_in_modal_on_web"`

	Theme  theme.Name            `yaml:"theme"`
	Colors *theme.ColorOverrides `yaml:"colors"`
	Fonts  *theme.FontOverrides  `yaml:"fonts"`

	APIKey string `yaml:"api_key"`
	Dev    bool   `yaml:"dev"`

	Platform       platform.ID `yaml:"platform"`
	BackButtonIcon string      `yaml:"back_button_icon"`

	Intro   IntroConfig    `yaml:"intro"`
	Steps   []StepConfig   `yaml:"steps"`
	Paywall *PaywallConfig `yaml:"paywall"`
}

// Default returns the configuration used when the file omits fields.
func Default() *FlowConfig {
	return &FlowConfig{
		AnimationDurationMS: DefaultAnimationDurationMS,
		Platform:            platform.IOS,
	}
}

// Load reads a flow configuration from a YAML file. A missing file yields
// the defaults.
func Load(path string) (*FlowConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read flow config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flow config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the flow cannot run with.
func (c *FlowConfig) Validate() error {
	if c.AnimationDurationMS < 0 {
		return fmt.Errorf("animation_duration_ms must not be negative, got %d", c.AnimationDurationMS)
	}
	switch c.Theme {
	case "", theme.Light, theme.Dark:
	default:
		return fmt.Errorf("unknown theme %q (expected light or dark)", c.Theme)
	}
	if c.Platform != "" && !c.Platform.Known() {
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	for i, s := range c.Steps {
		switch s.Position {
		case "", "top", "bottom":
		default:
			return fmt.Errorf("step %d: unknown image position %q (expected top or bottom)", i, s.Position)
		}
	}
	if c.Paywall != nil {
		for i, p := range c.Paywall.Products {
			if len(p.SKUs.ForPlatform(c.ResolvedPlatform())) == 0 {
				return fmt.Errorf("paywall product %d has no SKUs for platform %q", i, c.ResolvedPlatform())
			}
		}
		for i, pl := range c.Paywall.Plans {
			if pl.ID == "" {
				return fmt.Errorf("paywall plan %d is missing an id", i)
			}
		}
	}
	return nil
}

// AnimationDuration returns the transition pacing as a duration, applying
// the default for a zero value.
func (c *FlowConfig) AnimationDuration() time.Duration {
	ms := c.AnimationDurationMS
	if ms == 0 {
		ms = DefaultAnimationDurationMS
	}
	return time.Duration(ms) * time.Millisecond
}

// BackButtonEnabled resolves the back button visibility for a step,
// honoring the per-step override over the flow-wide setting (default on).
func (c *FlowConfig) BackButtonEnabled(step StepConfig) bool {
	if step.ShowBackButton != nil {
		return *step.ShowBackButton
	}
	if c.ShowBackButton != nil {
		return *c.ShowBackButton
	}
	return true
}

// CloseButtonEnabled reports whether the paywall shows a close affordance.
// Default on.
func (c *FlowConfig) CloseButtonEnabled() bool {
	if c.ShowCloseButton != nil {
		return *c.ShowCloseButton
	}
	return true
}

// ResolvedPlatform returns the configured platform, defaulting to iOS.
func (c *FlowConfig) ResolvedPlatform() platform.ID {
	if c.Platform == "" {
		return platform.IOS
	}
	return c.Platform
}

// PlanConfig converts the paywall section into the reconciler's input. A
// missing paywall yields the zero config, which has no purchases.
func (c *FlowConfig) PlanConfig() plans.Config {
	if c.Paywall == nil {
		return plans.Config{}
	}
	return plans.Config{Products: c.Paywall.Products, Plans: c.Paywall.Plans}
}

// SKUs lists the store identifiers the catalog fetch should query for the
// configured platform.
func (c *FlowConfig) SKUs() []string {
	pc := c.PlanConfig()
	return pc.SKUs(c.ResolvedPlatform())
}

// HasIAP reports whether a purchase configuration is active.
func (c *FlowConfig) HasIAP() bool {
	return c.PlanConfig().HasIAP()
}

// ResolveTheme produces the theme for a render pass from the file's
// settings.
func (c *FlowConfig) ResolveTheme(insets theme.Insets) theme.Theme {
	return theme.Resolve(c.Theme, nil, c.Colors, c.Fonts, insets)
}
