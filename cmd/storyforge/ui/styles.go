// Package ui provides the visual styling for the storyforge terminal app.
// A warm paper palette for light terminals and a midnight palette for dark
// ones, picked either from config or terminal detection.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Light Mode Colors (paper)
	LightBackground = lipgloss.Color("#fdf6e3") // Warm paper
	LightForeground = lipgloss.Color("#433422") // Ink brown
	LightPrimary    = lipgloss.Color("#5b4baf") // Storybook violet
	LightAccent     = lipgloss.Color("#e8871e") // Warm amber
	LightSecondary  = lipgloss.Color("#f0e7d8") // Aged paper
	LightMuted      = lipgloss.Color("#a89f91") // Faded ink
	LightBorder     = lipgloss.Color("#e0d6c2") // Paper edge
	LightCard       = lipgloss.Color("#ffffff") // White

	// Dark Mode Colors (night reading)
	DarkBackground = lipgloss.Color("#1e1b2e") // Midnight
	DarkForeground = lipgloss.Color("#ece5d8") // Cream
	DarkPrimary    = lipgloss.Color("#b69df8") // Lavender
	DarkAccent     = lipgloss.Color("#f0a35e") // Lantern amber
	DarkSecondary  = lipgloss.Color("#2a2640") // Deep violet
	DarkMuted      = lipgloss.Color("#6e6894") // Dusk
	DarkBorder     = lipgloss.Color("#3a3555") // Border dark
	DarkCard       = lipgloss.Color("#262138") // Card dark

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e05252") // Red
	Success     = lipgloss.Color("#6fbf73") // Green
	Warning     = lipgloss.Color("#f2c14e") // Yellow
	Info        = lipgloss.Color("#62a8e5") // Blue
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme auto-detects based on terminal hints or returns light mode
func DetectTheme() Theme {
	// COLORFGBG is usually "foreground;background"; low background
	// indices are dark terminals.
	colorTerm := os.Getenv("COLORFGBG")
	if colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}

	// Explicit dark mode preference
	if os.Getenv("STORYFORGE_DARK_MODE") == "1" {
		return DarkTheme()
	}

	return LightTheme()
}

// ThemeFor resolves a configured theme name, falling back to detection
// when the name is empty or unrecognized.
func ThemeFor(name string) Theme {
	switch name {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	default:
		return DetectTheme()
	}
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Interactive
	Prompt    lipgloss.Style
	UserInput lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Components
	Spinner lipgloss.Style
	Divider lipgloss.Style
	Badge   lipgloss.Style
	Card    lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		// Layout styles
		App: lipgloss.NewStyle().
			Background(theme.Background).
			Foreground(theme.Foreground),

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		// Text styles
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		// Interactive styles
		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		// Status styles
		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		// Component styles
		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		Card: lipgloss.NewStyle().
			Background(theme.Card).
			Foreground(theme.Foreground).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
	}
}

// DefaultStyles returns styles with the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// Logo returns the storyforge ASCII logo
func Logo(s Styles) string {
	logo := `
  ___ _                  ___
 / __| |_ ___ _ _ _  _  | __|__ _ _ __ _ ___
 \__ \  _/ _ \ '_| || | | _/ _ \ '_/ _` + "`" + ` / -_)
 |___/\__\___/_|  \_, | |_|\___/_| \__, \___|
                  |__/             |___/
`
	return s.Title.Foreground(s.Theme.Primary).Render(logo)
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
