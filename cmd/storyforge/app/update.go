// Package app implements the interactive storybook TUI.
// This file contains the Update loop and key handling.
package app

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"storyforge/cmd/storyforge/ui"
	"storyforge/internal/config"
	"storyforge/internal/logging"
	"storyforge/internal/story"
)

// Update routes every message to the handler for its type. Each handler
// updates the session fields in one step; nothing outside the Update loop
// mutates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.shutdown()
			return m, tea.Quit

		case tea.KeyCtrlK:
			// Change credential, allowed from any state once booted.
			if m.booting {
				return m, nil
			}
			return m.handleChangeKey()

		case tea.KeyCtrlR:
			if m.viewState() == stateOnboarding {
				return m.toggleKeyVisibility()
			}

		case tea.KeyEnter:
			switch m.viewState() {
			case stateOnboarding:
				return m.handleCredentialSubmit()
			case stateReady, stateError:
				return m.handleSubmit()
			case stateResult:
				return m.handleNewStory()
			}
			return m, nil

		case tea.KeyEsc:
			switch m.viewState() {
			case stateError:
				m.err = nil
				return m, nil
			case stateResult:
				return m.handleNewStory()
			}
			return m, nil

		default:
			if m.viewState() == stateResult {
				switch msg.String() {
				case "n":
					return m.handleNewStory()
				case "q":
					m.shutdown()
					return m, tea.Quit
				}
			}
		}

	case tea.WindowSizeMsg:
		return m.Update(windowSizeMsg(msg))

	case windowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 0 && msg.Height > 0 {
			m.ready = true
			m.resize()
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.booting {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
		return m, nil

	case bootCompleteMsg:
		return m.handleBootComplete(msg)

	case storyMsg:
		return m.handleStory(msg)

	case storyFailedMsg:
		return m.handleStoryFailed(msg)

	case storySavedMsg:
		if msg.err != nil {
			logging.LibraryError("failed to archive story: %v", msg.err)
			m.saveErr = msg.err
			return m, nil
		}
		m.savedDir = msg.dir
		return m, nil
	}

	// Forward everything else to whichever component has focus.
	switch m.viewState() {
	case stateOnboarding:
		m.keyInput, tiCmd = m.keyInput.Update(msg)
	case stateReady, stateError:
		m.categoryInput, tiCmd = m.categoryInput.Update(msg)
	case stateResult:
		m.viewport, vpCmd = m.viewport.Update(msg)
	}
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

// =============================================================================
// KEY HANDLERS
// =============================================================================

// handleCredentialSubmit stores the entered key and moves to the prompt.
// Persistence failure is not fatal: the session continues with the
// in-memory credential.
func (m Model) handleCredentialSubmit() (tea.Model, tea.Cmd) {
	key := strings.TrimSpace(m.keyInput.Value())
	if key == "" {
		return m, nil
	}

	gen, err := m.buildGenerator(key)
	if err != nil {
		logging.ConfigError("rejected credential: %v", err)
		m.err = err
		return m, nil
	}

	cfg := m.cfg
	cfg.APIKey = key
	if err := config.Save(cfg); err != nil {
		logging.ConfigError("failed to persist credential: %v", err)
	}
	m.cfg = cfg
	m.apiKey = key
	if m.generator != nil && !m.loading {
		m.generator.Close()
	}
	m.generator = gen
	m.err = nil
	m.keyInput.Reset()
	m.keyInput.EchoMode = textinput.EchoPassword
	m.keyInput.Blur()
	m.categoryInput.Focus()
	logging.Config("credential stored")
	return m, textinput.Blink
}

// handleSubmit starts a generation for the entered category. Submission is
// refused while the category is blank, while a request is in flight, and
// while no credential is held.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	category := strings.TrimSpace(m.categoryInput.Value())
	if category == "" {
		return m, nil
	}
	if m.loading {
		return m, nil
	}
	if m.apiKey == "" || m.generator == nil {
		return m, nil
	}

	m.loading = true
	m.err = nil
	m.result = nil
	m.savedDir = ""
	m.saveErr = nil
	logging.UI("generation requested for %q", category)
	return m, tea.Batch(m.spinner.Tick, m.generateStory(category))
}

// handleNewStory clears the category and result, keeping the credential.
func (m Model) handleNewStory() (tea.Model, tea.Cmd) {
	m.result = nil
	m.err = nil
	m.savedDir = ""
	m.saveErr = nil
	m.categoryInput.Reset()
	m.categoryInput.Focus()
	return m, textinput.Blink
}

// handleChangeKey drops the current credential and returns to onboarding.
// An in-flight generation is not cancelled; its outcome is applied when it
// lands.
func (m Model) handleChangeKey() (tea.Model, tea.Cmd) {
	if err := config.Clear(); err != nil {
		logging.ConfigError("failed to clear stored credential: %v", err)
	}
	if m.generator != nil {
		// The in-flight call keeps its own reference and runs to
		// completion, so only an idle client is closed here.
		if !m.loading {
			m.generator.Close()
		}
		m.generator = nil
	}
	m.apiKey = ""
	m.cfg.APIKey = ""
	m.err = nil
	m.keyInput.Reset()
	m.keyInput.EchoMode = textinput.EchoPassword
	m.keyInput.Focus()
	m.categoryInput.Blur()
	logging.UI("credential change requested")
	return m, textinput.Blink
}

// toggleKeyVisibility flips the credential field between masked and plain.
func (m Model) toggleKeyVisibility() (tea.Model, tea.Cmd) {
	if m.keyInput.EchoMode == textinput.EchoPassword {
		m.keyInput.EchoMode = textinput.EchoNormal
	} else {
		m.keyInput.EchoMode = textinput.EchoPassword
	}
	return m, nil
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

// handleBootComplete hydrates the model with everything the boot command
// loaded and focuses the field the user needs first.
func (m Model) handleBootComplete(msg bootCompleteMsg) (tea.Model, tea.Cmd) {
	m.booting = false
	m.cfg = msg.cfg
	if msg.settings != nil {
		m.settings = msg.settings
	}
	m.generator = msg.generator
	m.lib = msg.lib
	m.apiKey = msg.cfg.APIKey
	if msg.err != nil {
		m.err = msg.err
	}
	if msg.cfg.Theme != "" {
		m.styles = ui.NewStyles(ui.ThemeFor(msg.cfg.Theme))
		m.applyStyles()
	}
	if m.apiKey == "" {
		m.keyInput.Focus()
	} else {
		m.categoryInput.Focus()
	}
	return m, textinput.Blink
}

// handleStory lands a successful generation: the result replaces any prior
// one wholesale and the story is archived in the background. The category
// field keeps its value until the user asks for another story.
func (m Model) handleStory(msg storyMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.result == nil {
		return m, nil
	}
	m.err = nil
	m.result = msg.result
	m.savedDir = ""
	m.saveErr = nil
	m.viewport.SetContent(m.renderStory(msg.result))
	m.viewport.GotoTop()
	logging.UI("story ready: %q (%d pages, %d illustrations)",
		msg.result.Title, msg.result.PageCount(), msg.result.IllustrationCount())
	if m.lib == nil {
		return m, nil
	}
	return m, m.saveStory(msg.result)
}

// handleStoryFailed classifies a failed generation. An auth rejection
// clears the stored credential and returns to onboarding; anything else
// keeps the credential and shows the remote message so the user can retry
// immediately.
func (m Model) handleStoryFailed(msg storyFailedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.err = msg.err

	var authErr *story.AuthError
	if errors.As(msg.err, &authErr) {
		logging.UIWarn("credential rejected by the generation service")
		if err := config.Clear(); err != nil {
			logging.ConfigError("failed to clear stored credential: %v", err)
		}
		if m.generator != nil {
			m.generator.Close()
			m.generator = nil
		}
		m.apiKey = ""
		m.cfg.APIKey = ""
		m.keyInput.Reset()
		m.keyInput.EchoMode = textinput.EchoPassword
		m.keyInput.Focus()
		m.categoryInput.Blur()
		return m, textinput.Blink
	}

	logging.UIWarn("generation failed: %v", msg.err)
	return m, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

// resize recomputes layout-dependent component sizes and rewraps the
// rendered story.
func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	inputWidth := m.width - 8
	if inputWidth > 64 {
		inputWidth = 64
	}
	if inputWidth > 0 {
		m.keyInput.Width = inputWidth
		m.categoryInput.Width = inputWidth
	}

	m.viewport.Width = m.width
	m.viewport.Height = m.height - 7
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}

	wrap := m.width - 4
	if wrap > 100 {
		wrap = 100
	}
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.renderer = renderer
	}
	if m.result != nil {
		m.viewport.SetContent(m.renderStory(m.result))
	}
}
