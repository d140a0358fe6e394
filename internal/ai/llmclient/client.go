// Package llmclient wraps the OpenAI chat API with schema-constrained
// completions. Responses are validated against a JSON schema generated
// from the target Go type, with one stricter retry when the model returns
// something the schema rejects.
package llmclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
)

const (
	defaultModel     = "gpt-4o"
	defaultTimeout   = 180 * time.Second
	defaultMaxTokens = 4000

	// Retries for transport-level failures, on top of the first attempt.
	transportRetries = 3
	retryBaseDelay   = time.Second
)

// ErrInvalidResponse marks a completion that failed schema validation even
// after the stricter retry. It is final; the caller should not retry.
var ErrInvalidResponse = errors.New("llm response failed schema validation")

// Config holds connection settings for the chat API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client is a thin chat-completions client. The SDK's own retries are
// disabled; this package classifies and retries transport failures itself.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New creates a client with sane defaults for anything unset.
func New(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{api: &client, model: model, timeout: timeout}
}

// Request describes one structured completion. Images, when present, are
// attached to the user message as high-detail JPEG parts.
type Request struct {
	System      string
	User        string
	Images      [][]byte
	Temperature float64
	MaxTokens   int
	SchemaName  string
}

// complete runs one chat completion, retrying transport failures with
// exponential backoff. Non-retryable API errors surface immediately.
func (c *Client) complete(ctx context.Context, req Request, schema any, temperature float64) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := openai.ChatCompletionNewParams{
		Messages: buildMessages(req),
		Model:    openai.ChatModel(c.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				Type: constant.JSONSchema("json_schema"),
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: schema,
				},
			},
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	}

	delay := retryBaseDelay
	var lastErr error
	for attempt := 0; attempt <= transportRetries; attempt++ {
		completion, err := c.api.Chat.Completions.New(ctx, params)
		if err == nil {
			if len(completion.Choices) == 0 {
				return "", errors.New("no completion choices returned")
			}
			return completion.Choices[0].Message.Content, nil
		}
		lastErr = err
		if !retryableTransport(err) || attempt == transportRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", fmt.Errorf("chat completion: %w", lastErr)
}

// retryableTransport reports whether a call failure is worth repeating:
// rate limits, server errors and plain network failures are; any other
// HTTP status or a dead context is not.
func retryableTransport(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

func buildMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	if len(req.Images) == 0 {
		return []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		}
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		{
			OfText: &openai.ChatCompletionContentPartTextParam{
				Type: constant.Text("text"),
				Text: req.User,
			},
		},
	}
	for _, img := range req.Images {
		dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img)
		parts = append(parts, openai.ChatCompletionContentPartUnionParam{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				Type: constant.ImageURL("image_url"),
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
					URL:    dataURL,
					Detail: "high",
				},
			},
		})
	}
	return []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.System),
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: parts,
				},
			},
		},
	}
}
