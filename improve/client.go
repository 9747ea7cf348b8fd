package improve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"markestedt/refix/config"
	"markestedt/refix/logger"
)

var (
	// ErrMissingAPIKey disables the improvement pipeline for the process lifetime
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
	// ErrParse is returned when the completion response lacks message content
	ErrParse = errors.New("failed to parse OpenAI response")
)

// Improver rewrites a piece of text
type Improver interface {
	Name() string
	Improve(ctx context.Context, text string) (string, error)
}

// Options configure the completion request
type Options struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// OptionsFromConfig maps the [openai] config section
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.RequestTimeout(),
	}
}

// Client implements Improver on top of the chat completions endpoint
type Client struct {
	client   *openai.Client
	opts     Options
	pipeline *Pipeline
}

// NewClient creates a client for apiKey. An empty key yields ErrMissingAPIKey.
func NewClient(apiKey string, opts Options) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	cc := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cc.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cc.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &Client{
		client:   openai.NewClientWithConfig(cc),
		opts:     opts,
		pipeline: DefaultPipeline(),
	}, nil
}

// Name returns the provider name
func (c *Client) Name() string {
	return "openai"
}

// Model returns the model requests are sent to
func (c *Client) Model() string {
	return c.opts.Model
}

// Prompt wraps text in the rewrite instruction
func Prompt(text string) string {
	return "Refactor this text:\n\"" + text + "\""
}

// Improve sends text for rewriting and returns the sanitized result.
// Failures are returned as-is; nothing is retried.
func (c *Client) Improve(ctx context.Context, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: Prompt(text),
			},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if isDecodeError(err) {
			return "", fmt.Errorf("%w: %v", ErrParse, err)
		}
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrParse)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty message content", ErrParse)
	}

	logger.Debug("Completion received",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)))

	return c.pipeline.Apply(content)
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
