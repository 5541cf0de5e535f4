package responder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"prompter/trace"
)

const (
	chatModel       = "gpt-3.5-turbo"
	chatMaxTokens   = 500
	chatTemperature = 0.8
	doneSentinel    = "[DONE]"
)

// Chat talks to the backend's chat-completion endpoints.
type Chat struct {
	client  *trace.Client
	baseURL string
	token   string
}

func NewChat(baseURL, token string) *Chat {
	return &Chat{
		client:  trace.NewClient(baseURL + "/ai/chat"),
		baseURL: baseURL,
		token:   token,
	}
}

func (c *Chat) authorize(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Chat) Name() string { return "chat" }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream,omitempty"`
}

func (c *Chat) marshalRequest(p Prompt, stream bool) ([]byte, error) {
	return json.Marshal(chatRequest{
		Model:       chatModel,
		Messages:    BuildMessages(p),
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
		Stream:      stream,
	})
}

// Stream opens one long-lived request and decodes newline-delimited
// "data: <json>" frames into text deltas, invoking onDelta for each in
// arrival order. Malformed frames are skipped; the stream ends at the
// sentinel frame or when the transport closes.
func (c *Chat) Stream(ctx context.Context, p Prompt, onDelta func(string)) error {
	payload, err := c.marshalRequest(p, true)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/ai/chat-stream", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.client.Stream(req)
	if err != nil {
		return fmt.Errorf("response stream request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("response stream API error %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		delta, done := decodeFrame(scanner.Text())
		if done {
			return nil
		}
		if delta != "" {
			onDelta(delta)
		}
	}
	return scanner.Err()
}

// decodeFrame extracts the text delta from one stream line. Lines
// without the data prefix and frames that fail to parse yield nothing;
// the caller keeps reading.
func decodeFrame(line string) (delta string, done bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "data:") {
		return "", false
	}
	payload := strings.TrimSpace(trimmed[len("data:"):])
	if payload == doneSentinel {
		return "", true
	}
	var frame struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return "", false
	}
	if len(frame.Choices) == 0 {
		return "", false
	}
	return frame.Choices[0].Delta.Content, false
}

// Generate is the non-streaming fallback: one round trip, whole
// answer.
func (c *Chat) Generate(ctx context.Context, p Prompt) (string, error) {
	payload, err := c.marshalRequest(p, false)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/ai/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("response request: %w", err)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("response API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", fmt.Errorf("response parse error: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
