// Package app provides test utilities for TUI testing.
// This file contains mocks, fixtures, and helpers for testing the app package.
package app

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"storyforge/internal/config"
	"storyforge/internal/library"
	"storyforge/internal/story"
)

// =============================================================================
// MOCK GENERATOR
// =============================================================================

// mockGenerator implements story.Generator without any network access.
type mockGenerator struct {
	mu           sync.Mutex
	result       *story.StoryResult
	err          error
	callCount    int
	lastCategory string
	closed       bool
}

// newMockGenerator creates a mock that succeeds with a sample story.
func newMockGenerator() *mockGenerator {
	return &mockGenerator{result: sampleStory("dragons")}
}

// Generate implements story.Generator.
func (g *mockGenerator) Generate(_ context.Context, category string) (*story.StoryResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.callCount++
	g.lastCategory = category
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

// Close implements story.Generator.
func (g *mockGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// SetResult configures the story returned by Generate.
func (g *mockGenerator) SetResult(result *story.StoryResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.result = result
	g.err = nil
}

// SetError configures Generate to fail.
func (g *mockGenerator) SetError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// CallCount returns how many times Generate was called.
func (g *mockGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.callCount
}

// LastCategory returns the category of the most recent Generate call.
func (g *mockGenerator) LastCategory() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastCategory
}

// WasClosed returns true if Close was called.
func (g *mockGenerator) WasClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// MockError is a simple error type for testing.
type MockError struct {
	msg string
}

func (e *MockError) Error() string {
	return e.msg
}

// =============================================================================
// FIXTURES
// =============================================================================

// sampleStory builds a small two-page story for tests.
func sampleStory(category string) *story.StoryResult {
	return &story.StoryResult{
		Category: category,
		Title:    "The Brave Little Fox",
		Pages: []story.Page{
			{
				Number: 1,
				Text:   "Once upon a time a small fox set out at dusk.",
				Illustration: &story.Illustration{
					MIMEType: "image/png",
					Data:     []byte{0x89, 0x50, 0x4e, 0x47},
				},
			},
			{
				Number: 2,
				Text:   "And the fox was never afraid of the dark again.",
			},
		},
		Model:     "test-model",
		CreatedAt: time.Now(),
	}
}

// authFailure builds the error the client returns when the remote rejects
// the credential.
func authFailure() error {
	return &story.AuthError{Err: &MockError{msg: "API key not valid"}}
}

// generationFailure builds a non-auth remote failure carrying the remote's
// own message.
func generationFailure(msg string) error {
	return &story.GenerationError{Message: msg, Err: &MockError{msg: msg}}
}

// =============================================================================
// TEST MODEL BUILDER
// =============================================================================

// TestModelOption configures a test model.
type TestModelOption func(*Model)

// NewTestModel creates a Model suitable for testing. Construction matches
// NewModel; the boot sequence is skipped, booted state and a mock
// generator are applied directly.
func NewTestModel(opts ...TestModelOption) Model {
	m := NewModel()
	m.booting = false
	m.ready = true
	m.width = 100
	m.height = 50
	m.settings = config.DefaultSettings()

	gen := newMockGenerator()
	m.generator = gen
	m.newGenerator = func(string) (story.Generator, error) {
		return gen, nil
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// WithAPIKey sets the held credential. An empty key also drops the
// generator, matching a session that never onboarded.
func WithAPIKey(key string) TestModelOption {
	return func(m *Model) {
		m.apiKey = key
		m.cfg.APIKey = key
		if key == "" {
			m.generator = nil
		}
	}
}

// WithGenerator sets the generation client.
func WithGenerator(gen story.Generator) TestModelOption {
	return func(m *Model) {
		m.generator = gen
		m.newGenerator = func(string) (story.Generator, error) {
			return gen, nil
		}
	}
}

// WithBooting sets the model to booting state.
func WithBooting(booting bool) TestModelOption {
	return func(m *Model) {
		m.booting = booting
	}
}

// WithLoading sets the in-flight flag.
func WithLoading(loading bool) TestModelOption {
	return func(m *Model) {
		m.loading = loading
	}
}

// WithError sets the error field.
func WithError(err error) TestModelOption {
	return func(m *Model) {
		m.err = err
	}
}

// WithResult sets the displayed story.
func WithResult(result *story.StoryResult) TestModelOption {
	return func(m *Model) {
		m.result = result
	}
}

// WithCategory types text into the category field.
func WithCategory(text string) TestModelOption {
	return func(m *Model) {
		m.categoryInput.SetValue(text)
	}
}

// =============================================================================
// TEST HELPERS
// =============================================================================

// SimulateMessages sends messages through Update and returns the final model.
func SimulateMessages(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		newModel, _ := m.Update(msg)
		m = newModel.(Model)
	}
	return m
}

// SimulateSubmit types a category and presses Enter.
func SimulateSubmit(m Model, category string) (Model, tea.Cmd) {
	m.categoryInput.SetValue(category)
	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return newModel.(Model), cmd
}

// SimulateCredential types a key into the credential field and presses Enter.
func SimulateCredential(m Model, key string) (Model, tea.Cmd) {
	m.keyInput.SetValue(key)
	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return newModel.(Model), cmd
}

// RunCmd executes a returned command synchronously and feeds the resulting
// message back through Update, following batches one level deep.
func RunCmd(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			if sub == nil {
				continue
			}
			newModel, _ := m.Update(sub())
			m = newModel.(Model)
		}
		return m
	}
	newModel, _ := m.Update(msg)
	return newModel.(Model)
}

// openTestLibrary opens a throwaway library under the test's temp dir.
func openTestLibrary(t *testing.T) *library.Library {
	t.Helper()

	lib, err := library.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open test library: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

// writeFile creates a small file, for tests that need a path occupied.
func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
