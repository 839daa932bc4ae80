package story

import (
	"fmt"
	"strings"
)

// storyPromptTemplate asks the model for alternating text and image parts
// so the response can be folded into pages. Keeping the page count small
// bounds both latency and the size of the returned payload.
const storyPromptTemplate = `Write an illustrated children's storybook about %s.

Rules:
- Begin with a single-line title.
- Write 4 to 6 short pages, two or three sentences each.
- Immediately after each page of text, generate one illustration for that page.
- Illustrations share one consistent, colorful picture-book style.
- Keep the tone warm and suitable for young readers.`

// BuildPrompt renders the generation prompt for a category.
func BuildPrompt(category string) string {
	return fmt.Sprintf(storyPromptTemplate, strings.TrimSpace(category))
}
