package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/genai"

	"univers-nexus/internal/domain"
	"univers-nexus/internal/infra/metrics"
)

// Gemini реализует domain.Generator поверх генеративного API.
type Gemini struct {
	client     *genai.Client
	textModel  string
	imageModel string
	timeout    time.Duration
}

var _ domain.Generator = (*Gemini)(nil)

// NewGemini создаёт клиента генеративного бэкенда.
func NewGemini(ctx context.Context, apiKey, textModel, imageModel string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	if textModel == "" {
		textModel = "gemini-3-flash-preview"
	}
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gemini{client: client, textModel: textModel, imageModel: imageModel, timeout: timeout}, nil
}

// GenerateText возвращает текст модели на запрос с опциональной системной
// инструкцией.
func (g *Gemini) GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var config *genai.GenerateContentConfig
	if systemInstruction != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		}
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(prompt), config)
	metrics.ObserveNetworkRequest("gemini", "generate_text", start, err)
	if err != nil {
		return "", fmt.Errorf("gemini: generate text: %w", err)
	}
	metrics.ObserveAIGeneration(g.textModel, time.Since(start))
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// GenerateImage возвращает сгенерированное изображение как data-URL в base64.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.imageModel, genai.Text(prompt), nil)
	metrics.ObserveNetworkRequest("gemini", "generate_image", start, err)
	if err != nil {
		return "", fmt.Errorf("gemini: generate image: %w", err)
	}
	metrics.ObserveAIGeneration(g.imageModel, time.Since(start))
	for _, cand := range result.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return "data:image/png;base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
			}
		}
	}
	return "", fmt.Errorf("gemini: response has no image data")
}
