package board

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Client talks to the lead reorder API over HTTP, authenticating with the
// caller's session cookie. It implements Reorderer.
type Client struct {
	baseURL    string
	cookieName string
	token      string
	http       *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

func NewClient(baseURL, cookieName, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		cookieName: cookieName,
		token:      token,
		http:       &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type reorderRequest struct {
	Moves []Move `json:"moves"`
}

type leadPayload struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	StageID  *string `json:"stageId"`
	Position int     `json:"position"`
}

type reorderResponse struct {
	Leads []leadPayload `json:"leads"`
}

type apiErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Reorder submits the batch and returns the canonical card list. Stageless
// leads in the response are dropped; they have no column to land in.
func (c *Client) Reorder(ctx context.Context, moves []Move) ([]Card, error) {
	body, err := json.Marshal(reorderRequest{Moves: moves})
	if err != nil {
		return nil, errors.Wrap(err, "encode reorder request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/api/leads", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build reorder request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.token})

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send reorder request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorPayload
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Code != "" {
			return nil, errors.Errorf("reorder rejected: %s (%s)", apiErr.Message, apiErr.Code)
		}
		return nil, errors.Errorf("reorder rejected: status %d", resp.StatusCode)
	}

	var payload reorderResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode reorder response")
	}

	cards := make([]Card, 0, len(payload.Leads))
	for _, l := range payload.Leads {
		if l.StageID == nil {
			continue
		}
		id, err := uuid.Parse(l.ID)
		if err != nil {
			return nil, errors.Wrap(err, "parse lead id")
		}
		stageID, err := uuid.Parse(*l.StageID)
		if err != nil {
			return nil, errors.Wrap(err, "parse stage id")
		}
		cards = append(cards, Card{
			ID:       id,
			Name:     l.Name,
			StageID:  stageID,
			Position: l.Position,
		})
	}
	return cards, nil
}
