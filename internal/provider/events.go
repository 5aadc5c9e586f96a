package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// EventQuery is a marketplace event search.  Lat/Lon/Range are optional
// geo filters; Range uses the marketplace syntax, e.g. "30mi".
type EventQuery struct {
	Query    string
	Lat      *float64
	Lon      *float64
	Range    string
	PageSize int
}

// EventSearcher queries one marketplace for events.
type EventSearcher interface {
	Provider() model.Provider
	Search(ctx context.Context, q EventQuery) ([]model.EventRecord, error)
}

func pageSize(n int) int {
	if n < 1 {
		return 10
	}
	if n > 50 {
		return 50
	}
	return n
}

func formatCoord(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) }

// SeatGeekEvents calls the SeatGeek platform API (/2/events).
type SeatGeekEvents struct {
	BaseURL  string
	ClientID string
	Client   *http.Client
}

func (SeatGeekEvents) Provider() model.Provider { return model.ProviderSeatGeek }

type seatGeekResponse struct {
	Events []struct {
		ID            int64  `json:"id"`
		Title         string `json:"title"`
		DatetimeLocal string `json:"datetime_local"`
		URL           string `json:"url"`
		Venue         struct {
			Name  string `json:"name"`
			City  string `json:"city"`
			State string `json:"state"`
		} `json:"venue"`
		Stats struct {
			LowestPrice *float64 `json:"lowest_price"`
		} `json:"stats"`
	} `json:"events"`
}

func (s SeatGeekEvents) Search(ctx context.Context, q EventQuery) ([]model.EventRecord, error) {
	if s.ClientID == "" || s.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("client_id", s.ClientID)
	params.Set("per_page", strconv.Itoa(pageSize(q.PageSize)))
	if q.Lat != nil && q.Lon != nil {
		params.Set("lat", formatCoord(*q.Lat))
		params.Set("lon", formatCoord(*q.Lon))
		if q.Range != "" {
			params.Set("range", q.Range)
		}
	}
	endpoint := strings.TrimRight(s.BaseURL, "/") + "/2/events?" + params.Encode()

	var body seatGeekResponse
	if err := getJSON(ctx, s.Client, string(model.ProviderSeatGeek), endpoint, nil, &body); err != nil {
		return nil, err
	}
	out := make([]model.EventRecord, 0, len(body.Events))
	for _, ev := range body.Events {
		out = append(out, model.EventRecord{
			Provider:      model.ProviderSeatGeek,
			ID:            strconv.FormatInt(ev.ID, 10),
			Title:         ev.Title,
			DatetimeLocal: ev.DatetimeLocal,
			URL:           ev.URL,
			Venue:         model.Venue{Name: ev.Venue.Name, City: ev.Venue.City, State: ev.Venue.State},
			LowestPrice:   ev.Stats.LowestPrice,
		})
	}
	return out, nil
}

// StubHubEvents calls the StubHub catalog API with an OAuth bearer token.
type StubHubEvents struct {
	BaseURL     string
	AccessToken string
	Client      *http.Client
}

func (StubHubEvents) Provider() model.Provider { return model.ProviderStubHub }

type stubHubResponse struct {
	Embedded struct {
		Items []struct {
			ID        int64  `json:"id"`
			Name      string `json:"name"`
			StartDate string `json:"start_date"`
			Venue     struct {
				Name          string `json:"name"`
				City          string `json:"city"`
				StateProvince string `json:"state_province"`
			} `json:"venue"`
			MinTicketPrice *struct {
				Amount float64 `json:"amount"`
			} `json:"min_ticket_price"`
			Links struct {
				Web struct {
					Href string `json:"href"`
				} `json:"event:webpage"`
			} `json:"_links"`
		} `json:"items"`
	} `json:"_embedded"`
}

func (s StubHubEvents) Search(ctx context.Context, q EventQuery) ([]model.EventRecord, error) {
	if s.AccessToken == "" || s.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("page_size", strconv.Itoa(pageSize(q.PageSize)))
	if q.Lat != nil && q.Lon != nil {
		params.Set("latitude", formatCoord(*q.Lat))
		params.Set("longitude", formatCoord(*q.Lon))
		if q.Range != "" {
			params.Set("max_distance", q.Range)
		}
	}
	endpoint := strings.TrimRight(s.BaseURL, "/") + "/catalog/events/search?" + params.Encode()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.AccessToken)

	var body stubHubResponse
	if err := getJSON(ctx, s.Client, string(model.ProviderStubHub), endpoint, header, &body); err != nil {
		return nil, err
	}
	out := make([]model.EventRecord, 0, len(body.Embedded.Items))
	for _, it := range body.Embedded.Items {
		rec := model.EventRecord{
			Provider:      model.ProviderStubHub,
			ID:            strconv.FormatInt(it.ID, 10),
			Title:         it.Name,
			DatetimeLocal: it.StartDate,
			URL:           it.Links.Web.Href,
			Venue:         model.Venue{Name: it.Venue.Name, City: it.Venue.City, State: it.Venue.StateProvince},
		}
		if it.MinTicketPrice != nil {
			p := it.MinTicketPrice.Amount
			rec.LowestPrice = &p
		}
		out = append(out, rec)
	}
	return out, nil
}
