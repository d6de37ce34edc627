package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const geminiEndpointTemplate = "https://generativelanguage.googleapis.com/v1/models/%s:generateContent?key=%s"

const defaultGeminiModel = "gemini-2.5-pro"

// GeminiClient calls the Google generative language REST API.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
}

// NewGeminiClient builds a Gemini-backed analysis client.
// Temperature is pinned to 0 for deterministic, factual output.
func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: defaultChatTimeout},
		apiKey:     apiKey,
		model:      model,
	}, nil
}

func (c *GeminiClient) Analyze(ctx context.Context, title, articleText string) (Report, error) {
	if c == nil || c.httpClient == nil {
		return Report{}, fmt.Errorf("nil gemini client")
	}
	raw, err := c.generate(ctx, analystSystemPrompt, buildAnalystPrompt(title, articleText))
	if err != nil {
		return Report{}, err
	}
	return parseReport(raw)
}

func (c *GeminiClient) Digest(ctx context.Context, inputs []DigestInput) (DigestResult, error) {
	if c == nil || c.httpClient == nil {
		return DigestResult{}, fmt.Errorf("nil gemini client")
	}
	raw, err := c.generate(ctx, digestSystemPrompt, buildDigestPrompt(inputs))
	if err != nil {
		return DigestResult{}, err
	}
	return parseDigest(raw)
}

func (c *GeminiClient) generate(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"systemInstruction": map[string]any{
			"parts": []map[string]string{
				{"text": system},
			},
		},
		"contents": []map[string]any{
			{
				"parts": []map[string]string{
					{"text": user},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature": 0,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		fmt.Sprintf(geminiEndpointTemplate, c.model, c.apiKey), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var payload struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	for _, candidate := range payload.Candidates {
		for _, part := range candidate.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text, nil
			}
		}
	}
	return "", fmt.Errorf("gemini response is empty")
}
