// Package library persists finished storybooks. Each storybook becomes a
// directory holding story.md plus its illustrations, with an index row in
// SQLite so listing does not have to walk the filesystem.
//
// Storage location: <library dir>/library.db plus one directory per story.
package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"storyforge/internal/logging"
	"storyforge/internal/story"

	_ "github.com/mattn/go-sqlite3"
)

// Library indexes saved storybooks in SQLite and writes their files to disk.
type Library struct {
	db      *sql.DB
	mu      sync.RWMutex
	baseDir string
}

// SavedStory is one library index entry.
type SavedStory struct {
	ID            string
	Category      string
	Title         string
	Model         string
	Pages         int
	Illustrations int
	Dir           string
	CreatedAt     time.Time
}

// New opens (or creates) the library rooted at baseDir.
func New(baseDir string) (*Library, error) {
	logging.Get(logging.CategoryLibrary).Debug("Opening library at %s", baseDir)

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		logging.LibraryError("Failed to create library directory %s: %v", baseDir, err)
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "library.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		logging.LibraryError("Failed to open library database at %s: %v", dbPath, err)
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}

	lib := &Library{db: db, baseDir: baseDir}
	if err := lib.initialize(); err != nil {
		logging.LibraryError("Failed to initialize library schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Library("Library opened at %s", baseDir)
	return lib, nil
}

// initialize creates the database schema.
func (l *Library) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		model TEXT,
		pages INTEGER NOT NULL,
		illustrations INTEGER NOT NULL,
		dir TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_stories_created ON stories(created_at);
	CREATE INDEX IF NOT EXISTS idx_stories_category ON stories(category);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Save writes the storybook's files and indexes it. The returned entry
// carries the directory the files landed in.
func (l *Library) Save(ctx context.Context, result *story.StoryResult) (*SavedStory, error) {
	if result == nil || len(result.Pages) == 0 {
		return nil, fmt.Errorf("nothing to save")
	}

	id := uuid.NewString()
	title := result.Title
	if title == "" {
		title = fmt.Sprintf("A story about %s", result.Category)
	}

	dirName := fmt.Sprintf("%s_%s_%s",
		result.CreatedAt.Format("2006-01-02"), slugify(title), id[:8])
	dir := filepath.Join(l.baseDir, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create story directory: %w", err)
	}

	// The markdown references illustrations by filename, so names are
	// fixed up front and the writes fan out.
	files := make(map[int]string, len(result.Pages))
	for _, p := range result.Pages {
		if p.Illustration != nil {
			files[p.Number] = fmt.Sprintf("page_%02d%s", p.Number, extensionFor(p.Illustration.MIMEType))
		}
	}

	g, _ := errgroup.WithContext(ctx)
	for _, p := range result.Pages {
		if p.Illustration == nil {
			continue
		}
		g.Go(func() error {
			path := filepath.Join(dir, files[p.Number])
			if err := os.WriteFile(path, p.Illustration.Data, 0644); err != nil {
				return fmt.Errorf("failed to write illustration %d: %w", p.Number, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		md := renderMarkdown(result, title, files)
		if err := os.WriteFile(filepath.Join(dir, "story.md"), []byte(md), 0644); err != nil {
			return fmt.Errorf("failed to write story.md: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logging.LibraryError("Failed to write storybook files: %v", err)
		return nil, err
	}

	entry := &SavedStory{
		ID:            id,
		Category:      result.Category,
		Title:         title,
		Model:         result.Model,
		Pages:         result.PageCount(),
		Illustrations: result.IllustrationCount(),
		Dir:           dir,
		CreatedAt:     result.CreatedAt,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(`
		INSERT INTO stories (id, category, title, model, pages, illustrations, dir, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Category, entry.Title, entry.Model,
		entry.Pages, entry.Illustrations, entry.Dir,
		entry.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		logging.LibraryError("Failed to index storybook %s: %v", entry.ID, err)
		return nil, fmt.Errorf("failed to index storybook: %w", err)
	}

	logging.Library("Saved %q (%d pages) to %s", title, entry.Pages, dir)
	return entry, nil
}

// List returns the most recently saved storybooks, newest first.
func (l *Library) List(limit int) ([]SavedStory, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.Query(`
		SELECT id, category, title, model, pages, illustrations, dir, created_at
		FROM stories ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanStories(rows)
}

// Close closes the database connection.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db != nil {
		logging.Library("Closing library at %s", l.baseDir)
		return l.db.Close()
	}
	return nil
}

// scanStories scans rows into a SavedStory slice.
func (l *Library) scanStories(rows *sql.Rows) ([]SavedStory, error) {
	var stories []SavedStory

	for rows.Next() {
		var s SavedStory
		var createdAt string

		err := rows.Scan(
			&s.ID, &s.Category, &s.Title, &s.Model,
			&s.Pages, &s.Illustrations, &s.Dir, &createdAt,
		)
		if err != nil {
			continue
		}

		s.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		stories = append(stories, s)
	}

	return stories, nil
}

// renderMarkdown produces the on-disk story.md with image links that
// resolve relative to the story directory.
func renderMarkdown(result *story.StoryResult, title string, files map[int]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", title)
	fmt.Fprintf(&b, "\n*Category: %s*\n", result.Category)

	for _, p := range result.Pages {
		fmt.Fprintf(&b, "\n%s\n", p.Text)
		if name, ok := files[p.Number]; ok {
			fmt.Fprintf(&b, "\n![Illustration for page %d](%s)\n", p.Number, name)
		}
	}

	return b.String()
}

// slugify flattens a title into a directory-name-safe token.
func slugify(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevDash = false
		case !prevDash && b.Len() > 0:
			b.WriteRune('-')
			prevDash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "story"
	}
	if len(slug) > 40 {
		slug = strings.TrimSuffix(slug[:40], "-")
	}
	return slug
}

// extensionFor maps an illustration MIME type to a file extension.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
