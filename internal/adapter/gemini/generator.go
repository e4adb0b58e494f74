// Package gemini generates advisory text with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Source labels advisories produced by this package.
const Source = "gemini"

const systemInstruction = "You write short safety advisories for coal-mining and industrial " +
	"communities in Jharkhand, India. Answer in at most three plain sentences. " +
	"Name concrete precautions for outdoor workers. Do not use markdown."

// Generator wraps a genai client for single-turn text generation.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a Gemini client. baseURL overrides the API endpoint
// and is only set by tests.
func NewGenerator(ctx context.Context, apiKey, model, baseURL string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Generator{client: client, model: model}, nil
}

// Generate returns the model's text answer for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}

func (g *Generator) Name() string { return Source }
