// Package theme resolves the flow's visual theme: a named base palette
// (light or dark), optional per-field color and font overrides, and safe
// inset padding. Resolution happens once per render pass and the result is
// passed down as a value; there is no ambient theme state.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Name selects a base palette.
type Name string

const (
	Light Name = "light"
	Dark  Name = "dark"

	// DefaultName is used when neither an explicit nor an inherited theme
	// is available.
	DefaultName = Light
)

// Backgrounds are the surface colors.
type Backgrounds struct {
	Primary   lipgloss.Color `yaml:"primary"`
	Secondary lipgloss.Color `yaml:"secondary"`
	Label     lipgloss.Color `yaml:"label"`
	Accent    lipgloss.Color `yaml:"accent"`
}

// Texts are the foreground colors.
type Texts struct {
	Primary   lipgloss.Color `yaml:"primary"`
	Secondary lipgloss.Color `yaml:"secondary"`
	Contrast  lipgloss.Color `yaml:"contrast"`
}

// Fonts names the face for each text role.
type Fonts struct {
	IntroTitle      string `yaml:"introTitle"`
	IntroSubtitle   string `yaml:"introSubtitle"`
	IntroButton     string `yaml:"introButton"`
	StepLabel       string `yaml:"stepLabel"`
	StepTitle       string `yaml:"stepTitle"`
	StepDescription string `yaml:"stepDescription"`
	StepButton      string `yaml:"stepButton"`
	PrimaryButton   string `yaml:"primaryButton"`
	SecondaryButton string `yaml:"secondaryButton"`
}

// Insets pad the flow away from the host surface's edges.
type Insets struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// Theme is a fully resolved palette.
type Theme struct {
	Backgrounds Backgrounds
	Texts       Texts
	Fonts       Fonts
	Insets      Insets
}

const systemFont = "System"

func systemFonts() Fonts {
	return Fonts{
		IntroTitle:      systemFont,
		IntroSubtitle:   systemFont,
		IntroButton:     systemFont,
		StepLabel:       systemFont,
		StepTitle:       systemFont,
		StepDescription: systemFont,
		StepButton:      systemFont,
		PrimaryButton:   systemFont,
		SecondaryButton: systemFont,
	}
}

// LightTheme is the light base palette.
func LightTheme() Theme {
	return Theme{
		Backgrounds: Backgrounds{
			Primary:   "#007AFF",
			Secondary: "#FFFFFF",
			Label:     "#F2F2F7",
			Accent:    "#1C1C1E",
		},
		Texts: Texts{
			Primary:   "#1C1C1E",
			Secondary: "#8E8E93",
			Contrast:  "#FFFFFF",
		},
		Fonts: systemFonts(),
	}
}

// DarkTheme is the dark base palette.
func DarkTheme() Theme {
	return Theme{
		Backgrounds: Backgrounds{
			Primary:   "#0A84FF",
			Secondary: "#000000",
			Label:     "#2C2C2E",
			Accent:    "#0A84FF",
		},
		Texts: Texts{
			Primary:   "#FFFFFF",
			Secondary: "#8E8E93",
			Contrast:  "#000000",
		},
		Fonts: systemFonts(),
	}
}

// ByName returns the base palette for a name, defaulting to light for
// anything unrecognized.
func ByName(name Name) Theme {
	if name == Dark {
		return DarkTheme()
	}
	return LightTheme()
}

// ColorOverrides patch individual palette fields; empty fields inherit
// from the base theme.
type ColorOverrides struct {
	Background Backgrounds `yaml:"background"`
	Text       Texts       `yaml:"text"`
}

// FontOverrides patch font roles. In YAML a single scalar string fans out
// to every role; a mapping patches roles individually.
type FontOverrides struct {
	Fonts
}

// UnmarshalYAML accepts either a bare family name or a per-role mapping.
func (f *FontOverrides) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var family string
		if err := value.Decode(&family); err != nil {
			return err
		}
		f.Fonts = Fonts{
			IntroTitle:      family,
			IntroSubtitle:   family,
			IntroButton:     family,
			StepLabel:       family,
			StepTitle:       family,
			StepDescription: family,
			StepButton:      family,
			PrimaryButton:   family,
			SecondaryButton: family,
		}
		return nil
	}
	return value.Decode(&f.Fonts)
}

func pick(override, base lipgloss.Color) lipgloss.Color {
	if override != "" {
		return override
	}
	return base
}

func pickFont(override, base string) string {
	if override != "" {
		return override
	}
	return base
}

// Resolve produces the theme for one render pass. The base palette comes
// from the explicit name when set, otherwise the inherited theme, otherwise
// DefaultName; overrides then patch it field by field, with explicit values
// winning over the base.
func Resolve(explicit Name, inherited *Theme, colors *ColorOverrides, fonts *FontOverrides, insets Insets) Theme {
	var base Theme
	switch {
	case explicit != "":
		base = ByName(explicit)
	case inherited != nil:
		base = *inherited
	default:
		base = ByName(DefaultName)
	}

	out := base
	out.Insets = insets

	if colors != nil {
		out.Backgrounds = Backgrounds{
			Primary:   pick(colors.Background.Primary, base.Backgrounds.Primary),
			Secondary: pick(colors.Background.Secondary, base.Backgrounds.Secondary),
			Label:     pick(colors.Background.Label, base.Backgrounds.Label),
			Accent:    pick(colors.Background.Accent, base.Backgrounds.Accent),
		}
		out.Texts = Texts{
			Primary:   pick(colors.Text.Primary, base.Texts.Primary),
			Secondary: pick(colors.Text.Secondary, base.Texts.Secondary),
			Contrast:  pick(colors.Text.Contrast, base.Texts.Contrast),
		}
	}

	if fonts != nil {
		out.Fonts = Fonts{
			IntroTitle:      pickFont(fonts.IntroTitle, base.Fonts.IntroTitle),
			IntroSubtitle:   pickFont(fonts.IntroSubtitle, base.Fonts.IntroSubtitle),
			IntroButton:     pickFont(fonts.IntroButton, base.Fonts.IntroButton),
			StepLabel:       pickFont(fonts.StepLabel, base.Fonts.StepLabel),
			StepTitle:       pickFont(fonts.StepTitle, base.Fonts.StepTitle),
			StepDescription: pickFont(fonts.StepDescription, base.Fonts.StepDescription),
			StepButton:      pickFont(fonts.StepButton, base.Fonts.StepButton),
			PrimaryButton:   pickFont(fonts.PrimaryButton, base.Fonts.PrimaryButton),
			SecondaryButton: pickFont(fonts.SecondaryButton, base.Fonts.SecondaryButton),
		}
	}

	return out
}
