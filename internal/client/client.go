// Package client is an HTTP client for the odegate API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/TimurManjosov/odegate/internal/rollout"
	"github.com/TimurManjosov/odegate/internal/store"
	"github.com/TimurManjosov/odegate/internal/unlock"
)

// Client is an HTTP client for the odegate API. AdminKey authorizes item
// writes; SessionToken, when set, identifies the user for reads.
type Client struct {
	BaseURL      string
	AdminKey     string
	SessionToken string
	HTTPClient   *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, adminKey string) *Client {
	return &Client{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (status %d, %s): %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Item is an item as served to users, with its unlock outcome.
type Item struct {
	ID         string     `json:"id"`
	Kind       store.Kind `json:"kind"`
	ChapterID  string     `json:"chapterId"`
	Title      string     `json:"title"`
	Label      string     `json:"label,omitempty"`
	Link       string     `json:"link,omitempty"`
	Position   int        `json:"position"`
	UpdatedAt  string     `json:"updatedAt"`
	IsUnlocked bool       `json:"isUnlocked"`
	UnlockHint string     `json:"unlockHint,omitempty"`
}

// ItemList is a chapter listing.
type ItemList struct {
	ChapterID string     `json:"chapterId"`
	Kind      store.Kind `json:"kind"`
	Variant   string     `json:"variant,omitempty"`
	Items     []Item     `json:"items"`
}

// Feature is a gate decision for the client's session.
type Feature struct {
	Feature string `json:"feature"`
	Variant string `json:"variant"`
	Enabled bool   `json:"enabled"`
}

// ItemInput is the body of an item upsert. Env defaults to the server's.
type ItemInput struct {
	Kind             store.Kind      `json:"kind"`
	ChapterID        string          `json:"chapterId"`
	Title            string          `json:"title"`
	Label            string          `json:"label,omitempty"`
	Link             string          `json:"link,omitempty"`
	Position         int             `json:"position"`
	UnlockConditions json.RawMessage `json:"unlockConditions,omitempty"`
	Env              string          `json:"env,omitempty"`
}

// ListItems retrieves the items of one kind in a chapter
func (c *Client) ListItems(ctx context.Context, chapterID string, kind store.Kind) (*ItemList, error) {
	segment := "buttons"
	if kind == store.KindSubChapter {
		segment = "sub-chapters"
	}
	var out ItemList
	path := "/v1/chapters/" + url.PathEscape(chapterID) + "/" + segment
	if err := c.do(ctx, http.MethodGet, path, nil, c.SessionToken, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetItem retrieves a single item by id
func (c *Client) GetItem(ctx context.Context, id string) (*Item, error) {
	var out Item
	if err := c.do(ctx, http.MethodGet, "/v1/items/"+url.PathEscape(id), nil, c.SessionToken, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertItem creates or replaces an item and returns the stored version
func (c *Client) UpsertItem(ctx context.Context, id string, in ItemInput) (*store.Item, error) {
	var out store.Item
	if err := c.do(ctx, http.MethodPut, "/v1/items/"+url.PathEscape(id), in, c.AdminKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteItem deletes an item; env may be empty for the server default
func (c *Client) DeleteItem(ctx context.Context, id, env string) error {
	path := "/v1/items/" + url.PathEscape(id)
	if env != "" {
		path += "?" + url.Values{"env": {env}}.Encode()
	}
	return c.do(ctx, http.MethodDelete, path, nil, c.AdminKey, nil)
}

// Feature retrieves the gate decision for key
func (c *Client) Feature(ctx context.Context, key string) (*Feature, error) {
	var out Feature
	if err := c.do(ctx, http.MethodGet, "/v1/features/"+url.PathEscape(key), nil, c.SessionToken, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EvaluateUnlock evaluates conditions server-side. A zero at means now.
func (c *Client) EvaluateUnlock(ctx context.Context, conditions json.RawMessage, uctx unlock.Context, at time.Time) (*unlock.Result, error) {
	body := map[string]any{"conditions": conditions, "context": uctx}
	if !at.IsZero() {
		body["at"] = at
	}
	var out unlock.Result
	if err := c.do(ctx, http.MethodPost, "/v1/unlock/evaluate", body, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecideRollout asks the server for a rollout decision using its salt
func (c *Client) DecideRollout(ctx context.Context, id rollout.Identity, cfg rollout.Config) (bool, error) {
	var out struct {
		Enabled bool `json:"enabled"`
	}
	body := map[string]any{"identity": id, "config": cfg}
	if err := c.do(ctx, http.MethodPost, "/v1/rollout/decide", body, "", &out); err != nil {
		return false, err
	}
	return out.Enabled, nil
}

// do sends one request. in, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path string, in any, bearer string, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(bodyBytes, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(bodyBytes)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
