// Package app implements the interactive storybook TUI.
// This file contains the tea.Cmd closures that run off the Update loop.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"storyforge/internal/config"
	"storyforge/internal/library"
	"storyforge/internal/logging"
	"storyforge/internal/story"
)

// boot loads configuration, opens the library, and builds the generation
// client when a credential is already stored. The outcome arrives as a
// bootCompleteMsg; nothing here is fatal.
func (m Model) boot() tea.Cmd {
	return func() tea.Msg {
		settings, settingsErr := config.LoadSettings()
		if settings == nil {
			settings = config.DefaultSettings()
		}

		if dir, err := config.ConfigDir(); err == nil {
			// The TUI owns the terminal, so logging goes to files and an
			// init failure has nowhere to report but the log itself.
			_ = logging.Initialize(dir, settings.Logging.Debug)
		}
		timer := logging.StartTimer(logging.CategoryBoot, "startup")
		defer timer.Stop()

		if settingsErr != nil {
			logging.ConfigError("failed to load settings: %v", settingsErr)
		}

		cfg, cfgErr := config.Load()
		if cfgErr != nil {
			// Unreadable storage reads as absent; the user can re-onboard.
			logging.ConfigError("failed to load config: %v", cfgErr)
		}

		msg := bootCompleteMsg{cfg: cfg, settings: settings}

		libDir, libErr := settings.LibraryDir()
		if libErr == nil {
			var lib *library.Library
			lib, libErr = library.New(libDir)
			if libErr == nil {
				msg.lib = lib
			}
		}
		if libErr != nil {
			// Stories can still be generated and read, just not archived.
			logging.LibraryError("library unavailable: %v", libErr)
		}

		if cfg.APIKey != "" {
			gen, genErr := story.NewGeminiGenerator(cfg.APIKey,
				settings.Generation.Model, settings.GetGenerationTimeout())
			if genErr != nil {
				logging.BootError("failed to build generation client: %v", genErr)
				msg.err = genErr
			} else {
				msg.generator = gen
			}
		}

		logging.Boot("startup complete (credential=%t, library=%t)",
			cfg.APIKey != "", msg.lib != nil)
		return msg
	}
}

// generateStory runs one generation call off the Update loop. The call is
// never cancelled from the UI; the client's own timeout bounds it.
func (m Model) generateStory(category string) tea.Cmd {
	gen := m.generator
	return func() tea.Msg {
		result, err := gen.Generate(context.Background(), category)
		if err != nil {
			return storyFailedMsg{err: err}
		}
		return storyMsg{result: result}
	}
}

// saveStory archives a finished story in the background. Failure is
// reported as a footnote on the result view, never as an error state.
func (m Model) saveStory(result *story.StoryResult) tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		entry, err := lib.Save(context.Background(), result)
		if err != nil {
			return storySavedMsg{err: err}
		}
		return storySavedMsg{dir: entry.Dir}
	}
}
