// Package story generates illustrated storybooks through Google's Gemini API.
// It owns the request prompt, the single remote call, and the mapping of
// remote failures onto the error types the rest of the app branches on.
package story

import (
	"fmt"
	"strings"
	"time"
)

// Illustration is a generated image belonging to one page.
type Illustration struct {
	MIMEType string
	Data     []byte
}

// Page is one spread of the storybook: a passage of narrative and,
// usually, the illustration that goes with it.
type Page struct {
	Number       int
	Text         string
	Illustration *Illustration
}

// StoryResult is a complete generated storybook.
type StoryResult struct {
	Category  string
	Title     string
	Pages     []Page
	Model     string
	CreatedAt time.Time
}

// PageCount returns the number of pages in the storybook.
func (r *StoryResult) PageCount() int {
	return len(r.Pages)
}

// IllustrationCount returns how many pages carry an illustration.
func (r *StoryResult) IllustrationCount() int {
	n := 0
	for _, p := range r.Pages {
		if p.Illustration != nil {
			n++
		}
	}
	return n
}

// Markdown renders the storybook as a markdown document for terminal
// display. Illustrations appear as captions since the terminal cannot
// show the image data inline.
func (r *StoryResult) Markdown() string {
	var b strings.Builder

	title := r.Title
	if title == "" {
		title = fmt.Sprintf("A story about %s", r.Category)
	}
	fmt.Fprintf(&b, "# %s\n", title)

	for _, p := range r.Pages {
		fmt.Fprintf(&b, "\n%s\n", p.Text)
		if p.Illustration != nil {
			fmt.Fprintf(&b, "\n*(illustration %d)*\n", p.Number)
		}
	}

	return b.String()
}
