package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storyforge/cmd/storyforge/app"
	"storyforge/internal/config"
	"storyforge/internal/library"
)

var (
	// Global flags
	verbose bool
	apiKey  string
	theme   string
	timeout time.Duration

	// List flags
	listLimit int

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storyforge",
	Short: "StoryForge - illustrated bedtime stories in your terminal",
	Long: `StoryForge turns a word or two ("dragons", "a shy robot") into a short
illustrated children's storybook, written and drawn by Google's Gemini API
and read right in the terminal.

Finished stories are kept in a local library as markdown plus images.

Run without arguments to start the interactive reader.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip logger init for interactive mode (it has its own UI)
		if cmd.Use == "storyforge" && cmd.CalledAs() == "storyforge" {
			return nil
		}

		// Initialize logger
		logCfg := zap.NewProductionConfig()
		if verbose {
			logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = logCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyOverrides(cmd); err != nil {
			return err
		}
		return app.Run()
	},
}

// listCmd lists the storybooks saved in the local library
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved storybooks",
	Long: `Lists the storybooks in the local library, newest first. Each entry
names the directory holding story.md and its illustrations.`,
	RunE: listStories,
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the storyforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("storyforge v%s\n", app.Version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key to store before launching")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "", "Color theme: light or dark (default: detect)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Generation timeout (e.g. 90s, 3m)")

	// List flags
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of storybooks to list")

	// Add commands to root
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyOverrides persists flag-provided preferences before the interactive
// reader boots, so the boot sequence picks them up like any stored value.
func applyOverrides(cmd *cobra.Command) error {
	if key := strings.TrimSpace(apiKey); key != "" {
		cfg, _ := config.Load()
		cfg.APIKey = key
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to store API key: %w", err)
		}
	}

	if theme != "" {
		if theme != "light" && theme != "dark" {
			return fmt.Errorf("unknown theme %q (expected light or dark)", theme)
		}
		cfg, _ := config.Load()
		cfg.Theme = theme
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to store theme: %w", err)
		}
	}

	if cmd.Flags().Changed("timeout") {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", timeout)
		}
		settings, err := config.LoadSettings()
		if err != nil || settings == nil {
			settings = config.DefaultSettings()
		}
		settings.Generation.Timeout = timeout.String()
		if err := config.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to store timeout: %w", err)
		}
	}

	return nil
}

// listStories prints the library index, newest first
func listStories(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil || settings == nil {
		settings = config.DefaultSettings()
	}

	libDir, err := settings.LibraryDir()
	if err != nil {
		return fmt.Errorf("failed to resolve library directory: %w", err)
	}

	lib, err := library.New(libDir)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	stories, err := lib.List(listLimit)
	if err != nil {
		return fmt.Errorf("failed to list storybooks: %w", err)
	}

	if len(stories) == 0 {
		fmt.Println("No storybooks yet. Run storyforge to create one.")
		return nil
	}

	fmt.Println("StoryForge Library")
	fmt.Println("==================")
	for _, s := range stories {
		fmt.Printf("%s  %-40s  %2d pages  [%s]\n",
			s.CreatedAt.Format("2006-01-02"), clip(s.Title, 40), s.Pages, s.Category)
		fmt.Printf("            %s\n", s.Dir)
	}
	fmt.Printf("\n%d storybook(s) in %s\n", len(stories), libDir)
	return nil
}

// clip shortens a title to fit the listing column.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
