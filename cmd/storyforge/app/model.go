// Package app implements the interactive storybook TUI.
//
// The app is split across multiple files for maintainability:
//   - model.go: Model, view state derivation, messages, Init (this file)
//   - update.go: Update loop and key handling
//   - view.go: rendering for each view state
//   - commands.go: background work (boot, generation, archiving)
//
// The TUI is one event loop. Every user action and every finished
// background call arrives as a message, each handler updates the session
// fields in a single step, and the visible view is derived from those
// fields on every render rather than stored anywhere.
package app

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"storyforge/cmd/storyforge/ui"
	"storyforge/internal/config"
	"storyforge/internal/library"
	"storyforge/internal/logging"
	"storyforge/internal/story"
)

// Version is reported by the version command and the header badge.
const Version = "0.1.0"

// =============================================================================
// VIEW STATES
// =============================================================================

// viewState names the screens the TUI can show.
type viewState int

const (
	stateInitializing viewState = iota
	stateOnboarding
	stateReady
	stateLoading
	stateError
	stateResult
)

// =============================================================================
// MODEL
// =============================================================================

// Model holds all session state for one storybook run.
type Model struct {
	// UI Components
	keyInput      textinput.Model
	categoryInput textinput.Model
	viewport      viewport.Model
	spinner       spinner.Model
	styles        ui.Styles
	renderer      *glamour.TermRenderer

	// Terminal
	width  int
	height int
	ready  bool

	// Session state. The visible view is derived from these fields by
	// viewState; no field stores the current view.
	booting  bool
	cfg      config.Config
	settings *config.Settings
	apiKey   string
	loading  bool
	err      error
	result   *story.StoryResult
	savedDir string
	saveErr  error

	// Backend
	generator    story.Generator
	lib          *library.Library
	newGenerator func(apiKey string) (story.Generator, error)
}

// viewState derives the active screen from the session fields. It is
// computed per render and never stored. The credential check precedes the
// others, so clearing the credential from any state lands in onboarding.
func (m Model) viewState() viewState {
	switch {
	case m.booting:
		return stateInitializing
	case m.apiKey == "":
		return stateOnboarding
	case m.loading:
		return stateLoading
	case m.err != nil:
		return stateError
	case m.result != nil:
		return stateResult
	default:
		return stateReady
	}
}

// =============================================================================
// MESSAGES
// =============================================================================

// Messages passed through the Update loop.
type (
	// windowSizeMsg re-dispatches terminal size changes.
	windowSizeMsg tea.WindowSizeMsg

	// bootCompleteMsg carries everything loaded during startup.
	bootCompleteMsg struct {
		cfg       config.Config
		settings  *config.Settings
		generator story.Generator
		lib       *library.Library
		err       error
	}

	// storyMsg delivers a finished generation.
	storyMsg struct {
		result *story.StoryResult
	}

	// storyFailedMsg delivers a failed generation.
	storyFailedMsg struct {
		err error
	}

	// storySavedMsg reports the outcome of archiving a story.
	storySavedMsg struct {
		dir string
		err error
	}
)

// =============================================================================
// CONSTRUCTION
// =============================================================================

// NewModel builds the initial model. Everything slow (config, logging,
// library, the API client) happens in the boot command, not here.
func NewModel() Model {
	styles := ui.DefaultStyles()

	ki := textinput.New()
	ki.Placeholder = "Paste your Gemini API key"
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '•'
	ki.CharLimit = 256
	ki.Width = 48
	ki.Prompt = "| "
	ki.PromptStyle = styles.Prompt
	ki.TextStyle = styles.UserInput

	ci := textinput.New()
	ci.Placeholder = "dragons, a shy robot, the bottom of the sea..."
	ci.CharLimit = 200
	ci.Width = 48
	ci.Prompt = "| "
	ci.PromptStyle = styles.Prompt
	ci.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)

	return Model{
		keyInput:      ki,
		categoryInput: ci,
		viewport:      vp,
		spinner:       sp,
		styles:        styles,
		booting:       true,
		settings:      config.DefaultSettings(),
	}
}

// Init starts the cursor blink, the spinner, and the boot sequence.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.boot())
}

// buildGenerator constructs a generation client for the credential,
// honoring the newGenerator hook tests use to substitute a fake.
func (m Model) buildGenerator(apiKey string) (story.Generator, error) {
	if m.newGenerator != nil {
		return m.newGenerator(apiKey)
	}
	settings := m.settings
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return story.NewGeminiGenerator(apiKey, settings.Generation.Model, settings.GetGenerationTimeout())
}

// applyStyles pushes the current theme into the nested components.
func (m *Model) applyStyles() {
	m.keyInput.PromptStyle = m.styles.Prompt
	m.keyInput.TextStyle = m.styles.UserInput
	m.categoryInput.PromptStyle = m.styles.Prompt
	m.categoryInput.TextStyle = m.styles.UserInput
	m.spinner.Style = m.styles.Spinner
}

// shutdown releases backend resources. Safe to call more than once.
func (m *Model) shutdown() {
	if m.generator != nil {
		m.generator.Close()
		m.generator = nil
	}
	if m.lib != nil {
		m.lib.Close()
		m.lib = nil
	}
	logging.CloseAll()
}

// Run starts the TUI and blocks until the user quits.
func Run() error {
	p := tea.NewProgram(NewModel(), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.shutdown()
	}
	return err
}
