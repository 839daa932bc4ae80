package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/story"
)

func testStory(category, title string, created time.Time) *story.StoryResult {
	return &story.StoryResult{
		Category:  category,
		Title:     title,
		Model:     "test-model",
		CreatedAt: created,
		Pages: []story.Page{
			{
				Number:       1,
				Text:         "Page one.",
				Illustration: &story.Illustration{MIMEType: "image/png", Data: []byte{0x89, 0x50, 0x4E, 0x47}},
			},
			{Number: 2, Text: "Page two."},
		},
	}
}

func TestLibrary_SaveAndList(t *testing.T) {
	lib, err := New(t.TempDir())
	require.NoError(t, err)
	defer lib.Close()

	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	entry, err := lib.Save(context.Background(), testStory("foxes", "The Brave Little Fox", created))
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "The Brave Little Fox", entry.Title)
	assert.Equal(t, 2, entry.Pages)
	assert.Equal(t, 1, entry.Illustrations)
	assert.True(t, strings.HasPrefix(filepath.Base(entry.Dir), "2026-03-14_the-brave-little-fox_"),
		"unexpected dir name %q", filepath.Base(entry.Dir))

	// Files land in the story directory
	md, err := os.ReadFile(filepath.Join(entry.Dir, "story.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# The Brave Little Fox")
	assert.Contains(t, string(md), "Page one.")
	assert.Contains(t, string(md), "![Illustration for page 1](page_01.png)")

	img, err := os.ReadFile(filepath.Join(entry.Dir, "page_01.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, img)

	// And the index knows about it
	stories, err := lib.List(10)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, entry.ID, stories[0].ID)
	assert.Equal(t, "foxes", stories[0].Category)
	assert.Equal(t, created, stories[0].CreatedAt)
}

func TestLibrary_ListNewestFirst(t *testing.T) {
	lib, err := New(t.TempDir())
	require.NoError(t, err)
	defer lib.Close()

	older := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)

	_, err = lib.Save(context.Background(), testStory("cats", "First", older))
	require.NoError(t, err)
	_, err = lib.Save(context.Background(), testStory("dogs", "Second", newer))
	require.NoError(t, err)

	stories, err := lib.List(10)
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "Second", stories[0].Title)
	assert.Equal(t, "First", stories[1].Title)

	// Limit applies after ordering
	stories, err = lib.List(1)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "Second", stories[0].Title)
}

func TestLibrary_SaveNothing(t *testing.T) {
	lib, err := New(t.TempDir())
	require.NoError(t, err)
	defer lib.Close()

	_, err = lib.Save(context.Background(), nil)
	assert.Error(t, err)

	_, err = lib.Save(context.Background(), &story.StoryResult{Category: "empty"})
	assert.Error(t, err)
}

func TestLibrary_SaveUntitled(t *testing.T) {
	lib, err := New(t.TempDir())
	require.NoError(t, err)
	defer lib.Close()

	s := testStory("volcanoes", "", time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC))
	entry, err := lib.Save(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "A story about volcanoes", entry.Title)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Brave Little Fox!", "the-brave-little-fox"},
		{"  Spaces  ", "spaces"},
		{"", "story"},
		{"éclair & frog", "clair-frog"},
		{"A Very Long Title That Keeps Going And Going Forever", "a-very-long-title-that-keeps-going-and-g"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "input %q", tt.in)
		assert.LessOrEqual(t, len(slugify(tt.in)), 40)
	}
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".png", extensionFor("image/png"))
	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
	assert.Equal(t, ".webp", extensionFor("image/webp"))
	assert.Equal(t, ".png", extensionFor(""))
}
