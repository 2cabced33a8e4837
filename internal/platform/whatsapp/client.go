// Package whatsapp talks to the WhatsApp Cloud API: outbound template and
// text messages, plus the inbound webhook envelope.
package whatsapp

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
)

// ErrNotConfigured is returned when the access token or sender id is missing.
var ErrNotConfigured = errors.New("whatsapp client is not configured")

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("WhatsApp API error %d: %s", e.StatusCode, e.Body)
}

// Config holds the Graph API credentials.
type Config struct {
	BaseURL       string
	APIVersion    string
	AccessToken   string
	PhoneNumberID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client sends messages through the Cloud API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v21.0"
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type textParam struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type component struct {
	Type       string      `json:"type"`
	Parameters []textParam `json:"parameters"`
}

type templateBody struct {
	Name       string      `json:"name"`
	Language   language    `json:"language"`
	Components []component `json:"components"`
}

type language struct {
	Code string `json:"code"`
}

type textBody struct {
	Body string `json:"body"`
}

type outbound struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Template         *templateBody `json:"template,omitempty"`
	Text             *textBody     `json:"text,omitempty"`
}

// SendTemplate sends a pre-approved template whose body parameters are
// filled positionally from params.
func (c *Client) SendTemplate(ctx context.Context, to, name, lang string, params ...string) error {
	ps := make([]textParam, 0, len(params))
	for _, p := range params {
		ps = append(ps, textParam{Type: "text", Text: p})
	}
	return c.send(ctx, outbound{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: &templateBody{
			Name:       name,
			Language:   language{Code: lang},
			Components: []component{{Type: "body", Parameters: ps}},
		},
	})
}

// SendText sends a free-form reply inside the customer service window.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, outbound{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: body},
	})
}

func (c *Client) send(ctx context.Context, msg outbound) error {
	if c.cfg.AccessToken == "" || c.cfg.PhoneNumberID == "" {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.APIVersion, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
