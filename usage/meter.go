package usage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"prompter/account"
	"prompter/trace"
)

// Consumer reports consumed seconds to the backend and returns the
// authoritative account state.
type Consumer interface {
	Consume(ctx context.Context, seconds int) (*account.User, bool, error)
}

// Client is the HTTP Consumer against the usage endpoint.
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

func (c *Client) Consume(ctx context.Context, seconds int) (*account.User, bool, error) {
	payload, err := json.Marshal(map[string]int{"seconds": seconds})
	if err != nil {
		return nil, false, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/usage/consume", bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("usage consume: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, false, fmt.Errorf("usage API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var body struct {
		User        *account.User `json:"user"`
		IsUnlimited bool          `json:"isUnlimited"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, false, fmt.Errorf("usage response parse error: %w", err)
	}
	if body.User == nil {
		return nil, false, fmt.Errorf("usage response missing user")
	}
	return body.User, body.IsUnlimited, nil
}

// Meter holds the current budget and performs reconciliation. The
// budget it holds is overwritten, never merged, with each server
// answer.
type Meter struct {
	mu       sync.Mutex
	budget   Budget
	consumer Consumer

	// ChargeDiscarded controls whether clips rejected before producing
	// a usable turn (too short, no meaningful audio) still consume
	// their estimate. Off by default: unusable audio costs nothing.
	ChargeDiscarded bool
}

func NewMeter(consumer Consumer, initial Budget) *Meter {
	return &Meter{consumer: consumer, budget: initial}
}

func (m *Meter) Budget() Budget {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budget
}

// SetBudget replaces the local budget, e.g. after an account refresh
// outside the reconciliation path.
func (m *Meter) SetBudget(b Budget) {
	m.mu.Lock()
	m.budget = b
	m.mu.Unlock()
}

// Reconcile reports seconds to the backend and adopts the returned
// balance. On error the local budget keeps its last-known value.
func (m *Meter) Reconcile(ctx context.Context, seconds int) (*account.User, error) {
	user, _, err := m.consumer.Consume(ctx, seconds)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.budget = FromUser(user)
	m.mu.Unlock()
	return user, nil
}
