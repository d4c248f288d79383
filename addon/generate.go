package addon

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Test case output formats the dialog offers.
const (
	FormatGherkin  = "gherkin"
	FormatDetailed = "detailed"
)

// BuildPrompt turns a user story into the generation prompt for the
// requested format. Unknown formats get the detailed template.
func BuildPrompt(story string, format string) string {
	if format == FormatGherkin {
		return fmt.Sprintf("Here is a user story: %q\n"+
			"As a test assistant, generate a test scenario in Gherkin format (Given/When/Then).", story)
	}
	return fmt.Sprintf("Here is a user story: %q\n"+
		"Generate a detailed test case with steps and expected results.", story)
}

// Generator calls an OpenAI-compatible chat-completions endpoint to
// produce test cases from a prompt.
type Generator struct {
	Endpoint    string
	Model       string
	MaxTokens   int
	Temperature float64
}

// GeneratorAPIBuilder returns a requests.Builder configured for the
// chat-completions endpoint.
func (g Generator) GeneratorAPIBuilder() *requests.Builder {
	return requests.
		URL(g.Endpoint).
		Client(&http.Client{Timeout: GenerateRequestTimeout})
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate sends the prompt and returns the first choice's message
// content. Each request carries a correlation id in the logs so a slow
// or failed generation can be traced.
func (g Generator) Generate(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.NewString()
	log.Printf("Sending generation request %s to %s", requestID, g.Endpoint)

	req := chatCompletionsRequest{
		Model:       g.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
	}

	generatorError := HostError{}
	var json string
	err := g.GeneratorAPIBuilder().
		BodyJSON(&req).
		ToString(&json).
		ErrorJSON(&generatorError).
		Fetch(ctx)
	if err != nil {
		log.Printf("Generation request %s failed: %v %+v", requestID, err, generatorError)
		return "", fmt.Errorf("addon: generation request failed: %w", err)
	}
	if !gjson.Valid(json) {
		log.Printf("Invalid Generator Response for request %s:\n%s", requestID, json)
		return "", fmt.Errorf("addon: generator returned invalid json")
	}

	content := gjson.Get(json, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("addon: generator response carries no choices")
	}
	return content.String(), nil
}
