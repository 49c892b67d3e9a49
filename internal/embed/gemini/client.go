package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel    = "gemini-embedding-001"
	defaultTaskType = "SEMANTIC_SIMILARITY"

	retryBaseDelay = 2 * time.Second
)

// Client wraps the Google GenAI client for embedding inference.
type Client struct {
	client     *genai.Client
	modelName  string
	maxRetries int
	logger     *zap.Logger
}

// New creates a Client configured for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		client:     client,
		modelName:  model,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}

// Embed returns one vector per input text, in input order. The call is
// retried with linear backoff; the backoff honors context cancellation.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("gemini client is not initialized")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	cfg := &genai.EmbedContentConfig{TaskType: defaultTaskType}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying embedding request",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			if err := waitFor(ctx, time.Duration(attempt)*retryBaseDelay); err != nil {
				return nil, err
			}
		}

		resp, err := c.client.Models.EmbedContent(ctx, c.modelName, contents, cfg)
		if err != nil {
			lastErr = fmt.Errorf("embed content: %w", err)
			continue
		}

		vectors, err := extractVectors(resp, len(texts))
		if err != nil {
			lastErr = err
			continue
		}
		return vectors, nil
	}

	return nil, lastErr
}

func extractVectors(resp *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if resp == nil || len(resp.Embeddings) != want {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini api returned %d embeddings, want %d", got, want)
	}

	vectors := make([][]float32, want)
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini api returned an empty embedding at index %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
