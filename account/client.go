package account

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"prompter/trace"
)

// Client fetches the authenticated user from the backend.
type Client struct {
	http    *trace.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		http:    trace.NewClient(baseURL),
		baseURL: baseURL,
		token:   token,
	}
}

// Me returns the current user snapshot.
func (c *Client) Me(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("account API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var body struct {
		User User `json:"user"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("account response parse error: %w", err)
	}
	return &body.User, nil
}
