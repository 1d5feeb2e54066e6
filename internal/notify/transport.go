package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Transport delivers one alert to the downstream service.
type Transport interface {
	Send(ctx context.Context, p Payload) error
}

// StatusError reports a non-2xx response from the downstream service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inventory alert rejected with status %d", e.Code)
}

// HTTPTransport posts alerts as JSON to a fixed URL.
type HTTPTransport struct {
	client *http.Client
	url    string
}

// NewHTTPTransport creates an HTTP transport. A nil client uses http.DefaultClient.
func NewHTTPTransport(url string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPTransport{client: client, url: url}
}

func (t *HTTPTransport) Send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post inventory alert: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Code: resp.StatusCode}
	}

	return nil
}
