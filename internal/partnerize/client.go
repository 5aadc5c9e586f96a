// Package partnerize proxies the Partnerize affiliate network reporting API
// used to reconcile clicks with conversions per campaign.
package partnerize

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/stegverse/cfp-tickets/internal/provider"
)

const providerName = "partnerize"

// Client authenticates with HTTP Basic auth: the application key is the
// username and the user API key the password.
type Client struct {
	BaseURL    string
	AppKey     string
	UserAPIKey string
	HTTP       *http.Client
}

// ConversionQuery pages through a campaign's conversions.  Dates are
// YYYY-MM-DD in the Partnerize report timezone.
type ConversionQuery struct {
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}

// Networks returns the raw /network payload for the configured user.
func (c *Client) Networks(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/network", nil)
}

// Conversions returns the raw bulk conversions payload of a campaign.
func (c *Client) Conversions(ctx context.Context, campaignID string, q ConversionQuery) (json.RawMessage, error) {
	params := url.Values{}
	if q.StartDate != "" {
		params.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	return c.get(ctx, "/v3/brand/campaigns/"+url.PathEscape(campaignID)+"/conversions/bulk", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if c.AppKey == "" || c.UserAPIKey == "" || c.BaseURL == "" {
		return nil, provider.ErrNotConfigured
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &provider.UpstreamError{Provider: providerName, Err: err}
	}
	req.SetBasicAuth(c.AppKey, c.UserAPIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &provider.UpstreamError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &provider.UpstreamError{Provider: providerName, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &provider.UpstreamError{Provider: providerName, StatusCode: resp.StatusCode, Message: provider.ErrorMessage(body)}
	}
	if !json.Valid(body) {
		// non-JSON success bodies are passed through as a JSON string
		quoted, _ := json.Marshal(string(body))
		return quoted, nil
	}
	return body, nil
}
