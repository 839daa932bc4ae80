package story

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"storyforge/internal/logging"
)

// Defaults applied when settings do not specify them.
const (
	DefaultModel   = "gemini-2.5-flash-image"
	DefaultTimeout = 120 * time.Second
)

// Generator produces a storybook for a category. A Generator is bound to
// one credential for its lifetime; replacing the credential means building
// a new Generator and closing the old one.
type Generator interface {
	Generate(ctx context.Context, category string) (*StoryResult, error)
	Close() error
}

// =============================================================================
// GEMINI GENERATOR
// =============================================================================

// GeminiGenerator generates storybooks using Google's Gemini API. Each
// generation is exactly one remote call; there is no retry, and the
// configured timeout bounds the whole exchange.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiGenerator creates a generator bound to one credential. The
// credential is only ever judged by the remote service; a bad key fails
// on the first Generate, not here.
func NewGeminiGenerator(apiKey, model string, timeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Generate requests an illustrated storybook for the category.
// Returns *AuthError when the remote rejects the credential and
// *GenerationError for any other remote failure.
func (g *GeminiGenerator) Generate(ctx context.Context, category string) (*StoryResult, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, &ValidationError{Reason: "category must not be blank"}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	timer := logging.StartTimer(logging.CategoryGeneration, fmt.Sprintf("generate %q", category))
	defer timer.StopWithThreshold(30 * time.Second)

	contents := []*genai.Content{
		genai.NewContentFromText(BuildPrompt(category), genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		contents,
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	)
	if err != nil {
		logging.GenerationError("generate failed for %q: %v", category, err)
		return nil, classifyRemoteError(err)
	}

	result, err := assembleStory(category, g.model, resp)
	if err != nil {
		logging.GenerationError("unusable response for %q: %v", category, err)
		return nil, err
	}

	logging.Generation("generated %q: %d pages, %d illustrations",
		result.Title, result.PageCount(), result.IllustrationCount())
	return result, nil
}

// Close closes the underlying API client. The genai client holds no
// closable resources, so this always succeeds.
func (g *GeminiGenerator) Close() error {
	return nil
}

// assembleStory folds the response parts into pages. The model interleaves
// text and image parts; an image part closes the page it illustrates.
func assembleStory(category, model string, resp *genai.GenerateContentResponse) (*StoryResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &GenerationError{Message: "the model returned an empty response"}
	}

	result := &StoryResult{
		Category:  category,
		Model:     model,
		CreatedAt: time.Now(),
	}

	var page *Page
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		switch {
		case part.Text != "":
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if result.Title == "" {
				result.Title, text = splitTitle(text)
				if text == "" {
					continue
				}
			}
			if page == nil {
				page = &Page{Number: len(result.Pages) + 1}
			}
			if page.Text != "" {
				page.Text += "\n\n"
			}
			page.Text += text
		case part.InlineData != nil && len(part.InlineData.Data) > 0:
			if page == nil {
				page = &Page{Number: len(result.Pages) + 1}
			}
			page.Illustration = &Illustration{
				MIMEType: part.InlineData.MIMEType,
				Data:     part.InlineData.Data,
			}
			result.Pages = append(result.Pages, *page)
			page = nil
		}
	}
	if page != nil {
		result.Pages = append(result.Pages, *page)
	}

	if len(result.Pages) == 0 {
		return nil, &GenerationError{Message: "the model returned no story content"}
	}

	return result, nil
}

// splitTitle separates a leading title line from the rest of a text block,
// stripping markdown heading and emphasis markers.
func splitTitle(text string) (string, string) {
	line, rest, _ := strings.Cut(text, "\n")
	title := strings.Trim(strings.TrimSpace(line), "#* ")
	return title, strings.TrimSpace(rest)
}
