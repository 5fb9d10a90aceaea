package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini generates robot responses (and round prompts) with the Gemini API.
// Personality tags steer the register; when human responses are available
// they are passed along as style reference so robot answers blend in.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) GenerateResponse(ctx context.Context, req Request) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %q, a player in a party game where everyone answers the same question in one or two casual sentences.\n", req.DisplayName)
	fmt.Fprintf(&b, "Write in a %s voice. Do not mention being an AI. Do not use quotation marks.\n", personaVoice(req))
	if len(req.HumanResponses) > 0 {
		b.WriteString("Other players answered like this; match their tone and length:\n")
		for _, text := range req.HumanResponses {
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}
	fmt.Fprintf(&b, "Question: %s\nYour answer:", req.Prompt)

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(b.String()), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

// NextPrompt implements the prompt provider contract so a single Gemini
// client can serve both collaborator roles.
func (g *Gemini) NextPrompt(ctx context.Context, priorPrompts []string) (string, error) {
	var b strings.Builder
	b.WriteString("Write one short, casual icebreaker question for a party game. ")
	b.WriteString("It should be answerable in a sentence or two by anyone. Return only the question.\n")
	if len(priorPrompts) > 0 {
		b.WriteString("Avoid repeating these earlier questions and keep a light thread of continuity with them:\n")
		for _, prior := range priorPrompts {
			fmt.Fprintf(&b, "- %s\n", prior)
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(b.String()), nil)
	if err != nil {
		return "", fmt.Errorf("gemini prompt generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty prompt")
	}
	return text, nil
}

func personaVoice(req Request) string {
	switch req.Personality {
	case "", "custom":
		return "natural, unremarkable"
	default:
		return string(req.Personality)
	}
}
