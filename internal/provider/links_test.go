package provider

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatGeekLinks_BuildSearchURL(t *testing.T) {
	b := SeatGeekLinks{BaseURL: "https://seatgeek.com/", AffiliateCode: "AFF1"}

	raw := b.BuildSearchURL(SearchQuery{EventName: "Texas Tech", Location: "Lubbock", Date: "2025-11-01", GroupSize: 4})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "seatgeek.com", u.Host)
	assert.Equal(t, "/search", u.Path)
	assert.Equal(t, "Texas Tech Lubbock 2025-11-01", u.Query().Get("search"))
	assert.Equal(t, "4", u.Query().Get("group_size"))
	assert.Equal(t, "AFF1", u.Query().Get("aid"))
}

func TestStubHubLinks_BuildSearchURL(t *testing.T) {
	b := StubHubLinks{BaseURL: "https://www.stubhub.com"}

	raw := b.BuildSearchURL(SearchQuery{EventName: "Cowboys", GroupSize: 2})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/s/", u.Path)
	assert.Equal(t, "Cowboys", u.Query().Get("q"))
	assert.False(t, u.Query().Has("partner_id"))
}

func TestLinks_EmptyWhenUnusable(t *testing.T) {
	tests := []struct {
		name    string
		builder URLBuilder
		query   SearchQuery
	}{
		{"seatgeek blank event", SeatGeekLinks{BaseURL: "https://seatgeek.com"}, SearchQuery{EventName: "  "}},
		{"seatgeek no base", SeatGeekLinks{}, SearchQuery{EventName: "x"}},
		{"stubhub blank event", StubHubLinks{BaseURL: "https://www.stubhub.com"}, SearchQuery{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, tt.builder.BuildSearchURL(tt.query))
		})
	}
}
