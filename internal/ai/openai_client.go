package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the model used when none is configured for the openai provider.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIOptions configures the official SDK client.
type OpenAIOptions struct {
	HTTPTimeout time.Duration
	// RetryMax counts attempts, so 1 disables SDK retries.
	RetryMax int
	BaseURL  string
}

// OpenAIClient adapts github.com/openai/openai-go to Runtime.
type OpenAIClient struct {
	client  openai.Client
	apiKey  string
	baseURL string
}

// NewOpenAIClient builds an SDK-backed runtime.
func NewOpenAIClient(apiKey string, opt OpenAIOptions) *OpenAIClient {
	if opt.HTTPTimeout <= 0 {
		opt.HTTPTimeout = 60 * time.Second
	}
	retries := opt.RetryMax - 1
	if retries < 0 {
		retries = 0
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: opt.HTTPTimeout}),
		option.WithMaxRetries(retries),
	}
	base := opt.BaseURL
	if base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	return &OpenAIClient{client: openai.NewClient(opts...), apiKey: apiKey, baseURL: base}
}

// Generate issues one chat completion through the SDK.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, missingKeyError()
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	var httpResp *http.Response
	completion, err := c.client.Chat.Completions.New(ctx, params, option.WithResponseInto(&httpResp))
	if err != nil {
		return nil, c.mapError(ctx, err)
	}
	out := &GenerateResponse{
		ID:    completion.ID,
		Model: completion.Model,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	for _, ch := range completion.Choices {
		out.Choices = append(out.Choices, Choice{
			Message:      Message{Role: "assistant", Content: ch.Message.Content},
			FinishReason: ch.FinishReason,
		})
	}
	if httpResp != nil {
		out.RequestID = extractRequestID(httpResp.Header)
	}
	return out, nil
}

// mapError converts SDK errors into this package's typed errors.
func (c *OpenAIClient) mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		e := &APIError{StatusCode: apiErr.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
		h := http.Header{}
		if apiErr.Response != nil {
			h = apiErr.Response.Header
			e.RequestID = extractRequestID(h)
		}
		return classifyAPIError(e, h)
	}
	host := c.baseURL
	if host == "" {
		host = "api.openai.com"
	}
	return &UnreachableError{Host: host, Err: fmt.Errorf("openai: %w", err)}
}
