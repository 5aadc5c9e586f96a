package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxErrorBody bounds how much of a failed response is read for a message.
const maxErrorBody = 4 << 10

// NewHTTPClient returns the client shared by the marketplace integrations.
// The timeout covers the whole exchange; a timeout surfaces as an
// UpstreamError like any other transport failure.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// getJSON performs a GET and decodes a 2xx JSON body into out.  Every
// failure is returned as *UpstreamError tagged with provider.
func getJSON(ctx context.Context, client *http.Client, provider, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &UpstreamError{Provider: provider, Err: err}
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &UpstreamError{Provider: provider, Err: describeTransport(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Message: ErrorMessage(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Provider: provider, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func describeTransport(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("timeout: %w", err)
	}
	return err
}

// ErrorMessage digs a human message out of a JSON error body using the
// field names marketplaces and affiliate networks commonly use.
func ErrorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, k := range []string{"message", "error", "detail", "faultstring"} {
		if s, ok := payload[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
