package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/safar/tradein-store/internal/config"
)

type Email struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, email Email) error
}

// ProviderError is a non-2xx answer from the email provider.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("email provider status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the request may succeed.
func (e *ProviderError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// EmailClient posts templated emails to an HTTP email provider.
type EmailClient struct {
	client *resty.Client
	url    string
	from   string
}

func NewEmailClient(cfg config.EmailConfig) *EmailClient {
	client := resty.New().SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &EmailClient{client: client, url: cfg.APIURL, from: cfg.From}
}

type emailRequest struct {
	From string `json:"from"`
	Email
}

func (c *EmailClient) SendEmail(ctx context.Context, email Email) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(emailRequest{From: c.from, Email: email}).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if resp.IsError() {
		return &ProviderError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return nil
}
