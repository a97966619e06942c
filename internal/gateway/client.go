package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client sends one message to one recipient over the messaging gateway.
type Client interface {
	Send(ctx context.Context, to, text string) error
}

// HTTPClient talks to a Digitalin-style WhatsApp gateway: a single GET
// endpoint carrying api_key, sender, number and message as query
// parameters. A timeout or non-200 status is a send failure; the caller
// decides about retries.
type HTTPClient struct {
	baseURL  string
	sendPath string
	apiKey   string
	sender   string
	client   *http.Client
}

type Config struct {
	BaseURL  string
	SendPath string
	APIKey   string
	Sender   string
	Timeout  time.Duration
}

func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SendPath == "" {
		cfg.SendPath = "/send-message"
	}

	return &HTTPClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		sendPath: cfg.SendPath,
		apiKey:   cfg.APIKey,
		sender:   cfg.Sender,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) Send(ctx context.Context, to, text string) error {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("sender", c.sender)
	q.Set("number", to)
	q.Set("message", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.sendPath+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway status %d for number %s", res.StatusCode, to)
	}

	return nil
}
