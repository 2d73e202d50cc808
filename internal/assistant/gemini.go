package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client answers coordinator questions about intake triage, case law
// categories and drafting. It is a thin wrapper over the Gemini API; the
// HTTP layer treats any failure here as an opaque internal error.
type Client interface {
	Chat(ctx context.Context, prompt string) (string, error)
	Close() error
}

type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

const systemInstruction = `You are an assistant for legal-aid coordinators in Ethiopia.
Help with case triage, categorization and drafting. Answer concisely.
Never invent laws or case outcomes; say so when unsure.`

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Chat(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content returned from AI")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", errors.New("response contained no text parts")
	}
	return answer, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}
