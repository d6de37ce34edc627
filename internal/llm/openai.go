package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	model  openai.ChatModel
	client *openai.Client
}

const (
	defaultChatTimeout = 60 * time.Second

	// Temperature is pinned to 0 to match the analyst contract:
	// deterministic, factual output.
	defaultChatTemperature = 0
)

// NewOpenAIClient builds a client with defaults against api.openai.com.
func NewOpenAIClient(apiKey string, model openai.ChatModel) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		model:  model,
		client: &cli,
	}, nil
}

func (c *OpenAIClient) Analyze(ctx context.Context, title, articleText string) (Report, error) {
	if c == nil || c.client == nil {
		return Report{}, fmt.Errorf("nil openai client")
	}
	raw, err := c.complete(ctx, analystSystemPrompt, buildAnalystPrompt(title, articleText))
	if err != nil {
		return Report{}, err
	}
	return parseReport(raw)
}

func (c *OpenAIClient) Digest(ctx context.Context, inputs []DigestInput) (DigestResult, error) {
	if c == nil || c.client == nil {
		return DigestResult{}, fmt.Errorf("nil openai client")
	}
	raw, err := c.complete(ctx, digestSystemPrompt, buildDigestPrompt(inputs))
	if err != nil {
		return DigestResult{}, err
	}
	return parseDigest(raw)
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()
	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    buildMessages(system, user),
		Temperature: openai.Float(defaultChatTemperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}
