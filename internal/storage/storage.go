package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/safar/tradein-store/internal/config"
)

// Client uploads objects to an S3-style bucket API:
// POST {base}/object/{bucket}/{path}.
type Client struct {
	client  *resty.Client
	baseURL string
}

func New(cfg config.StorageConfig) *Client {
	client := resty.New().SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &Client{client: client, baseURL: strings.TrimRight(cfg.URL, "/")}
}

type uploadResponse struct {
	Key string `json:"Key"`
}

// UploadFile stores body under bucket/path and returns the storage key.
func (c *Client) UploadFile(ctx context.Context, bucket, path, contentType string, body io.Reader) (string, error) {
	var out uploadResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		SetResult(&out).
		Post(c.baseURL + "/object/" + url.PathEscape(bucket) + "/" + escapePath(path))
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("upload %s/%s: storage status %d: %s", bucket, path, resp.StatusCode(), resp.String())
	}

	if out.Key != "" {
		return out.Key, nil
	}
	return bucket + "/" + path, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
