package client

import (
	"context"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/resilience"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIClient wraps the chat completion API behind the CompletionClient
// port.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	cb          *gobreaker.CircuitBreaker
	cfg         resilience.Config
}

// NewOpenAIClient creates a new OpenAIClient. An empty model falls back
// to gpt-4o-mini.
func NewOpenAIClient(apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: 0.7,
		maxTokens:   2000,
		cb:          cb,
		cfg:         cfg,
	}
}

// Complete runs one system+user exchange with retry, circuit breaker,
// and tracing.
func (c *OpenAIClient) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	var out domain.CompletionResponse

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       c.model,
				Temperature: c.temperature,
				MaxTokens:   c.maxTokens,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
					{Role: openai.ChatMessageRoleUser, Content: req.UserMessage},
				},
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return &domain.ErrNotFound{Resource: "completion choice", ID: c.model}
			}

			out = domain.CompletionResponse{
				Answer: resp.Choices[0].Message.Content,
				TokensUsed: domain.TokenUsage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &out, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "openai", Err: err}
	}

	return &out, nil
}
