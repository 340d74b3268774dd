package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"pdfrag/internal/config"
)

// Prompt is the user-facing part of one chat request: plain text, optionally
// accompanied by a base64-encoded image for multimodal calls.
type Prompt struct {
	Text        string
	ImageBase64 string
}

// Client talks to a single OpenAI-compatible chat-completions endpoint serving
// vision extraction, translation, document integration and answer generation.
// Timeouts differ per call because inference latency dominates: extraction and
// integration get the long budget, translation and answering short ones.
type Client struct {
	url    string
	model  string
	cfg    config.LLMConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a chat client for the configured endpoint.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) *Client {
	return &Client{
		url:    cfg.URL,
		model:  cfg.Model,
		cfg:    cfg,
		http:   &http.Client{}, // per-call deadlines come from context
		logger: logger,
	}
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	Stream    bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractImage sends one page image with the fixed extraction instruction and
// returns the newline-joined content of every returned choice. The caller
// treats an error the same as empty text: the page is skipped, never fatal.
func (c *Client) ExtractImage(ctx context.Context, imageBase64 string) (string, error) {
	msgs := []message{{Role: "user", Content: promptContent(Prompt{
		Text:        extractionPrompt,
		ImageBase64: imageBase64,
	})}}
	contents, err := c.chat(ctx, msgs, 0, c.cfg.ExtractTimeout())
	if err != nil {
		c.logger.Warn("vl extraction failed", zap.Error(err))
		return "", err
	}
	joined := strings.Join(contents, "\n")
	c.logger.Info("vl extraction succeeded", zap.Int("content_length", len(joined)))
	return joined, nil
}

// Translate renders content into the index's working language, returning only
// the trimmed translation.
func (c *Client) Translate(ctx context.Context, content string) (string, error) {
	msgs := []message{
		{Role: "system", Content: translationSystem},
		{Role: "user", Content: fmt.Sprintf(translationPrompt, content)},
	}
	return c.first(ctx, msgs, 1000, c.cfg.TranslateTimeout())
}

// Integrate consolidates the concatenated per-page extractions into one
// coherent document.
func (c *Client) Integrate(ctx context.Context, documentContent string) (string, error) {
	msgs := []message{
		{Role: "system", Content: integrationSystem},
		{Role: "user", Content: fmt.Sprintf(integrationPrompt, documentContent)},
	}
	return c.first(ctx, msgs, 10000, c.cfg.IntegrateTimeout())
}

// Answer generates a grounded answer from the original question and the
// retrieved context, optionally attaching a caller-supplied image.
func (c *Client) Answer(ctx context.Context, question, retrievedContent, imageBase64 string) (string, error) {
	msgs := []message{
		{Role: "system", Content: answerSystem},
		{Role: "user", Content: promptContent(Prompt{
			Text:        fmt.Sprintf(answerPrompt, question, retrievedContent),
			ImageBase64: imageBase64,
		})},
	}
	return c.first(ctx, msgs, 2000, c.cfg.AnswerTimeout())
}

// promptContent builds the wire shape for a Prompt: a bare string for
// text-only calls, or a structured list mixing an image reference and the
// text instruction.
func promptContent(p Prompt) any {
	if p.ImageBase64 == "" {
		return p.Text
	}
	return []map[string]any{
		{
			"type": "image_url",
			"image_url": map[string]string{
				"url": "data:image/jpeg;base64," + p.ImageBase64,
			},
		},
		{"type": "text", "text": p.Text},
	}
}

// first returns the trimmed content of the first choice, failing on empty.
func (c *Client) first(ctx context.Context, msgs []message, maxTokens int, timeout time.Duration) (string, error) {
	contents, err := c.chat(ctx, msgs, maxTokens, timeout)
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(contents[0])
	if out == "" {
		return "", errors.New("empty completion")
	}
	return out, nil
}

func (c *Client) chat(ctx context.Context, msgs []message, maxTokens int, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: maxTokens,
		Stream:    false,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	c.logger.Debug("chat response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chat request failed: %s: %s", resp.Status, snippet)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	contents := make([]string, 0, len(out.Choices))
	for _, choice := range out.Choices {
		if choice.Message.Content != "" {
			contents = append(contents, choice.Message.Content)
		}
	}
	if len(contents) == 0 {
		return nil, errors.New("no usable content in response")
	}
	return contents, nil
}
