// Package app provides tests for view rendering.
// This file tests that each derived state renders the right content.
package app

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// BASIC RENDERING TESTS
// =============================================================================

func TestView_NotReady(t *testing.T) {
	t.Parallel()
	m := NewTestModel()
	m.ready = false

	if got := m.View(); got != "Initializing..." {
		t.Errorf("Expected placeholder before the first window size, got %q", got)
	}
}

func TestView_BootScreen(t *testing.T) {
	t.Parallel()
	m := NewTestModel(WithBooting(true))

	view := m.View()
	if !strings.Contains(view, "Waking the storytellers") {
		t.Error("Expected the boot screen while initializing")
	}
}

func TestView_Onboarding(t *testing.T) {
	t.Parallel()
	m := NewTestModel(WithAPIKey(""))

	view := m.View()
	if !strings.Contains(view, "Welcome to StoryForge") {
		t.Error("Expected the onboarding welcome")
	}
	if !strings.Contains(view, "aistudio.google.com") {
		t.Error("Expected a pointer to where keys come from")
	}
}

func TestView_Ready_ShowsPrompt(t *testing.T) {
	t.Parallel()
	m := NewTestModel(WithAPIKey("sk-test"))

	view := m.View()
	if !strings.Contains(view, "What should tonight's story be about?") {
		t.Error("Expected the category prompt")
	}
}

func TestView_Loading_NamesTheCategory(t *testing.T) {
	t.Parallel()
	m := NewTestModel(WithAPIKey("sk-test"), WithLoading(true), WithCategory("dragons"))

	view := m.View()
	if !strings.Contains(view, "Writing and illustrating a story about dragons") {
		t.Error("Expected the loading view to name the category")
	}
}

// =============================================================================
// ERROR RENDERING TESTS
// =============================================================================

func TestView_Error_ShowsRemoteMessageVerbatim(t *testing.T) {
	t.Parallel()
	remoteMsg := "The model is overloaded. Please try again later."
	m := NewTestModel(WithAPIKey("sk-test"), WithError(generationFailure(remoteMsg)))

	view := m.View()
	if !strings.Contains(view, remoteMsg) {
		t.Errorf("Expected the remote message verbatim, view:\n%s", view)
	}
}

func TestView_Error_KeepsPromptForRetry(t *testing.T) {
	t.Parallel()
	m := NewTestModel(WithAPIKey("sk-test"), WithError(generationFailure("boom")))

	view := m.View()
	if !strings.Contains(view, "What should tonight's story be about?") {
		t.Error("Expected the prompt to stay visible under the error")
	}
}

func TestView_Onboarding_ExplainsAuthRejection(t *testing.T) {
	t.Parallel()
	m := NewTestModel(WithAPIKey(""), WithError(authFailure()))

	view := m.View()
	if !strings.Contains(view, "rejected your API key") {
		t.Error("Expected a plain-words explanation of the auth rejection")
	}
	if strings.Contains(view, "API key not valid") {
		t.Error("Expected the raw remote auth message to be rephrased")
	}
}

// =============================================================================
// RESULT RENDERING TESTS
// =============================================================================

func TestView_Result_ShowsStory(t *testing.T) {
	t.Parallel()
	m := NewTestModel(WithAPIKey("sk-test"), WithLoading(true))

	newModel, _ := m.Update(storyMsg{result: sampleStory("dragons")})
	result := newModel.(Model)

	view := result.View()
	if !strings.Contains(view, "The Brave Little Fox") {
		t.Errorf("Expected the story title in the result view, got:\n%s", view)
	}
}

func TestView_Result_SavedFootnote(t *testing.T) {
	t.Parallel()
	m := NewTestModel(WithAPIKey("sk-test"), WithResult(sampleStory("dragons")))
	m.savedDir = "/home/reader/stories/2026-08-23_the-brave-little-fox_ab12cd34"

	view := m.View()
	if !strings.Contains(view, "Saved to") {
		t.Error("Expected the saved-to footnote")
	}
}

func TestView_Result_SaveFailureFootnote(t *testing.T) {
	t.Parallel()
	m := NewTestModel(WithAPIKey("sk-test"), WithResult(sampleStory("dragons")))
	m.saveErr = &MockError{msg: "disk full"}

	view := m.View()
	if !strings.Contains(view, "Couldn't save to the library") {
		t.Error("Expected the save-failure footnote")
	}
	if strings.Contains(view, "disk full") {
		t.Error("Expected the raw filesystem error kept out of the reading view")
	}
}

// =============================================================================
// HEADER AND FOOTER TESTS
// =============================================================================

func TestView_HeaderStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    Model
		want string
	}{
		{"setup before a credential", NewTestModel(WithAPIKey("")), "Setup"},
		{"ready with a credential", NewTestModel(WithAPIKey("sk-test")), "Ready"},
		{"writing while loading", NewTestModel(WithAPIKey("sk-test"), WithLoading(true)), "Writing..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.renderHeader(); !strings.Contains(got, tt.want) {
				t.Errorf("Expected header status %q, got:\n%s", tt.want, got)
			}
		})
	}
}

func TestView_FooterHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    Model
		want string
	}{
		{"onboarding", NewTestModel(WithAPIKey("")), "enter save key"},
		{"ready", NewTestModel(WithAPIKey("sk-test")), "enter create"},
		{"loading", NewTestModel(WithAPIKey("sk-test"), WithLoading(true)), "ctrl+k change key"},
		{"error", NewTestModel(WithAPIKey("sk-test"), WithError(generationFailure("boom"))), "enter retry"},
		{"result", NewTestModel(WithAPIKey("sk-test"), WithResult(sampleStory("dragons"))), "n new story"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.renderFooter(); !strings.Contains(got, tt.want) {
				t.Errorf("Expected footer hint %q, got %q", tt.want, got)
			}
		})
	}
}

// =============================================================================
// ROBUSTNESS TESTS
// =============================================================================

func TestView_AllStates_NoPanic(t *testing.T) {
	t.Parallel()

	models := map[string]Model{
		"initializing": NewTestModel(WithBooting(true)),
		"onboarding":   NewTestModel(WithAPIKey("")),
		"ready":        NewTestModel(WithAPIKey("sk-test")),
		"loading":      NewTestModel(WithAPIKey("sk-test"), WithLoading(true)),
		"error":        NewTestModel(WithAPIKey("sk-test"), WithError(generationFailure("boom"))),
		"auth error":   NewTestModel(WithAPIKey(""), WithError(authFailure())),
		"result":       NewTestModel(WithAPIKey("sk-test"), WithResult(sampleStory("dragons"))),
	}

	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("PANIC rendering %s: %v", name, r)
				}
			}()
			if m.View() == "" {
				t.Errorf("Expected non-empty view for %s", name)
			}
		})
	}
}

func TestView_TinyWindow_NoPanic(t *testing.T) {
	t.Parallel()

	for _, size := range []tea.WindowSizeMsg{
		{Width: 1, Height: 1},
		{Width: 5, Height: 2},
		{Width: 20, Height: 5},
	} {
		m := NewTestModel(WithAPIKey("sk-test"), WithResult(sampleStory("dragons")))

		newModel, _ := m.Update(size)
		m = newModel.(Model)

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("PANIC at %dx%d: %v", size.Width, size.Height, r)
			}
		}()
		_ = m.View()
	}
}
