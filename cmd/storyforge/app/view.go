// Package app implements the interactive storybook TUI.
// This file contains view rendering for each derived state.
package app

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"storyforge/cmd/storyforge/ui"
	"storyforge/internal/story"
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.viewState() {
	case stateInitializing:
		return m.renderBootScreen()
	case stateOnboarding:
		return m.renderFrame(m.renderOnboarding())
	case stateLoading:
		return m.renderFrame(m.renderLoading())
	case stateError:
		return m.renderFrame(m.renderError())
	case stateResult:
		return m.renderFrame(m.renderResult())
	default:
		return m.renderFrame(m.renderPrompt())
	}
}

// renderFrame stacks the header, one view body, and the footer.
func (m Model) renderFrame(body string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" StoryForge ")
	version := m.styles.Badge.Render("v" + Version)

	var status string
	switch {
	case m.loading:
		status = lipgloss.JoinHorizontal(lipgloss.Center,
			m.spinner.View(), " ", m.styles.Badge.Render("Writing..."))
	case m.apiKey == "":
		status = m.styles.Warning.Render("Setup")
	default:
		status = m.styles.Success.Render("Ready")
	}

	headerLine := lipgloss.JoinHorizontal(
		lipgloss.Center,
		title,
		" ",
		version,
		"  ",
		status,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		m.styles.RenderDivider(m.width),
	)
}

func (m Model) renderFooter() string {
	var hints []string
	switch m.viewState() {
	case stateOnboarding:
		hints = []string{"enter save key", "ctrl+r reveal", "ctrl+c quit"}
	case stateLoading:
		hints = []string{"ctrl+k change key", "ctrl+c quit"}
	case stateError:
		hints = []string{"enter retry", "esc dismiss", "ctrl+k change key", "ctrl+c quit"}
	case stateResult:
		hints = []string{"n new story", "↑/↓ scroll", "ctrl+k change key", "q quit"}
	default:
		hints = []string{"enter create", "ctrl+k change key", "ctrl+c quit"}
	}
	return m.styles.Footer.Render(strings.Join(hints, " • "))
}

// =============================================================================
// VIEW BODIES
// =============================================================================

func (m Model) renderBootScreen() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		ui.Logo(m.styles),
		"",
		m.spinner.View(),
		"",
		m.styles.Badge.Render("Waking the storytellers"),
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

func (m Model) renderOnboarding() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Welcome to StoryForge"))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Body.Render("Stories are written and illustrated by Google's Gemini API, which needs an API key."))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("Create one at https://aistudio.google.com/apikey. The key never leaves this machine."))
	sb.WriteString("\n\n")
	if m.err != nil {
		sb.WriteString(m.renderErrorBanner())
		sb.WriteString("\n\n")
	}
	sb.WriteString(m.keyInput.View())
	return m.styles.App.Padding(1, 2).Render(sb.String())
}

func (m Model) renderPrompt() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("What should tonight's story be about?"))
	sb.WriteString("\n")
	sb.WriteString(m.categoryInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Muted.Render("A word or two is plenty. The storytellers take it from there."))
	return m.styles.App.Padding(1, 2).Render(sb.String())
}

func (m Model) renderLoading() string {
	category := strings.TrimSpace(m.categoryInput.Value())
	line := "Writing and illustrating a story"
	if category != "" {
		line = "Writing and illustrating a story about " + category
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.spinner.View(),
		"",
		m.styles.Subtitle.Render(line),
		m.styles.Muted.Render("Illustrations take a little while. Worth the wait."),
	)

	return lipgloss.Place(
		m.width,
		m.contentHeight(),
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// renderError shows the failure banner above the prompt so the user can
// retry without an extra step.
func (m Model) renderError() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.App.Padding(1, 2, 0, 2).Render(m.renderErrorBanner()),
		m.renderPrompt(),
	)
}

func (m Model) renderResult() string {
	var footnote string
	switch {
	case m.savedDir != "":
		footnote = m.styles.Muted.Render("Saved to " + m.savedDir)
	case m.saveErr != nil:
		footnote = m.styles.Muted.Render("Couldn't save to the library; the story lives only on screen.")
	}
	if footnote == "" {
		return m.viewport.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footnote)
}

// renderErrorBanner phrases an auth rejection in plain words; every other
// failure shows the remote service's message verbatim.
func (m Model) renderErrorBanner() string {
	var authErr *story.AuthError
	if errors.As(m.err, &authErr) {
		return m.styles.Error.Render("The generation service rejected your API key. Enter a new one to continue.")
	}
	return m.styles.Error.Render(m.err.Error())
}

// renderStory renders the story markdown for the viewport with panic
// recovery. Glamour can panic on odd terminal profiles; fall back to the
// raw markdown.
func (m Model) renderStory(result *story.StoryResult) (out string) {
	if result == nil {
		return ""
	}
	md := result.Markdown()
	defer func() {
		if r := recover(); r != nil {
			out = md
		}
	}()
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(md); err == nil {
			return rendered
		}
	}
	return md
}

// contentHeight is the vertical space left between header and footer.
func (m Model) contentHeight() int {
	h := m.height - 6
	if h < 3 {
		return 3
	}
	return h
}
