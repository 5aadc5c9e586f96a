package provider

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// SearchQuery is the user-facing search a link is built for.
type SearchQuery struct {
	EventName string
	Location  string
	Date      string
	GroupSize int
}

// text joins the non-empty parts of the query into one search string.
func (q SearchQuery) text() string {
	parts := []string{strings.TrimSpace(q.EventName)}
	if l := strings.TrimSpace(q.Location); l != "" {
		parts = append(parts, l)
	}
	if d := strings.TrimSpace(q.Date); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, " ")
}

// URLBuilder turns a search into a marketplace affiliate URL.  An empty
// string means no link can be produced for the query.
type URLBuilder interface {
	Provider() model.Provider
	Label() string
	BuildSearchURL(q SearchQuery) string
}

// SeatGeekLinks builds https://seatgeek.com/search?search=...&aid=... links.
type SeatGeekLinks struct {
	BaseURL       string
	AffiliateCode string
}

func (SeatGeekLinks) Provider() model.Provider { return model.ProviderSeatGeek }
func (SeatGeekLinks) Label() string            { return "View tickets on SeatGeek" }

func (s SeatGeekLinks) BuildSearchURL(q SearchQuery) string {
	if strings.TrimSpace(q.EventName) == "" || s.BaseURL == "" {
		return ""
	}
	params := url.Values{}
	params.Set("search", q.text())
	// group size is a hint for the partner's analytics; the site ignores it
	params.Set("group_size", strconv.Itoa(q.GroupSize))
	if s.AffiliateCode != "" {
		params.Set("aid", s.AffiliateCode)
	}
	return strings.TrimRight(s.BaseURL, "/") + "/search?" + params.Encode()
}

// StubHubLinks builds https://www.stubhub.com/s/?q=...&partner_id=... links.
type StubHubLinks struct {
	BaseURL       string
	AffiliateCode string
}

func (StubHubLinks) Provider() model.Provider { return model.ProviderStubHub }
func (StubHubLinks) Label() string            { return "View tickets on StubHub" }

func (s StubHubLinks) BuildSearchURL(q SearchQuery) string {
	if strings.TrimSpace(q.EventName) == "" || s.BaseURL == "" {
		return ""
	}
	params := url.Values{}
	params.Set("q", q.text())
	params.Set("group_size", strconv.Itoa(q.GroupSize))
	if s.AffiliateCode != "" {
		params.Set("partner_id", s.AffiliateCode)
	}
	return strings.TrimRight(s.BaseURL, "/") + "/s/?" + params.Encode()
}
