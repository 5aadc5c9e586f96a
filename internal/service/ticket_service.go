// Package service composes the experiment, seating and click log packages
// into the ticket search and click flows served over HTTP.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stegverse/cfp-tickets/internal/clicklog"
	"github.com/stegverse/cfp-tickets/internal/config"
	"github.com/stegverse/cfp-tickets/internal/experiment"
	"github.com/stegverse/cfp-tickets/internal/metrics"
	"github.com/stegverse/cfp-tickets/internal/model"
	"github.com/stegverse/cfp-tickets/internal/provider"
	"github.com/stegverse/cfp-tickets/internal/seating"
)

// Request limits.
const (
	MaxPartySize = 50
	MaxRowsLimit = 3
)

// Stored click field limits, in runes.  They match the click_events columns.
const (
	MaxEventNameLen   = 255
	MaxBucketLabelLen = 32
	MaxCampaignIDLen  = 128
	MaxClientIPLen    = 64
	MaxUserAgentLen   = 512
)

// ClickPath is the tracking endpoint click URLs point at.
const ClickPath = "/v1/tickets/click"

// InventorySource supplies listed seat blocks for an event query.
type InventorySource interface {
	ListByEvent(ctx context.Context, eventName string) ([]model.SeatBlock, error)
}

// ExperimentSource overlays runtime flags onto the env experiment config.
type ExperimentSource interface {
	Experiment(ctx context.Context, base experiment.Config) (experiment.Config, error)
}

// ClickPublisher forwards recorded clicks to the broker.
type ClickPublisher interface {
	PublishClick(ctx context.Context, ev model.ClickEvent) error
}

// ClickArchive counts archived clicks.  *repository.ClickRepo satisfies it.
type ClickArchive interface {
	CountByProviderSince(ctx context.Context, since time.Time) (map[string]int, error)
}

// TicketService handles ticket searches and affiliate clicks.  Builders,
// Clicks and Experiment are required; the remaining collaborators are
// optional and skipped when nil.
type TicketService struct {
	Builders     []provider.URLBuilder // enabled marketplaces
	Clicks       *clicklog.Aggregator
	Experiment   experiment.Config // env defaults
	Flags        ExperimentSource
	Inventory    InventorySource
	Publisher    ClickPublisher
	Archive      ClickArchive
	ClickBaseURL string // absolute origin for click URLs; empty gives relative URLs
	NewID        func() string
}

// ExperimentDefaults converts env settings into an experiment config.
// CFP_DEFAULT_PROVIDER, when it names a marketplace, becomes the override.
func ExperimentDefaults(ec config.ExperimentConfig) experiment.Config {
	cfg := experiment.DefaultConfig()
	if p, ok := model.ParseProvider(ec.ForcedProvider); ok {
		cfg.Override = p
	}
	if p, ok := model.ParseProvider(ec.DefaultVariant); ok && p.IsVariant() {
		cfg.DefaultVariant = p
	}
	cfg.SplitPercent = ec.SplitPercent
	cfg.Mode = experiment.ParseMode(ec.Mode)
	return cfg
}

// SearchRequest is one ticket search.  A nil Inventory means the caller
// sent none and the InventorySource is consulted.
type SearchRequest struct {
	EventName     string
	Location      string
	Date          string
	Provider      string
	PartySize     int
	MaxRows       int
	StackedRows   bool
	PriceCeiling  *float64
	ExperimentKey string
	Inventory     []model.SeatBlock
}

// SearchResult is the search response body.
type SearchResult struct {
	Provider         model.Provider         `json:"provider"`
	ExperimentBucket string                 `json:"experiment_bucket"`
	GroupSize        int                    `json:"group_size"`
	MaxRows          int                    `json:"max_rows"`
	EventName        string                 `json:"event_name"`
	Location         string                 `json:"location,omitempty"`
	Date             string                 `json:"date,omitempty"`
	Links            []model.AffiliateLink  `json:"links"`
	GroupingOptions  []model.GroupingOption `json:"grouping_options"`
	Warnings         []string               `json:"warnings"`
}

// Search validates req, assigns the experiment variant, builds one link per
// enabled marketplace and computes grouping options.
func (s *TicketService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	req.EventName = strings.TrimSpace(req.EventName)
	choice, err := validateSearch(req)
	if err != nil {
		return nil, err
	}

	cfg := s.experimentConfig(ctx)
	variant := experiment.Assign(choice, req.ExperimentKey, cfg)
	metrics.SearchRequests.WithLabelValues(string(variant)).Inc()

	res := &SearchResult{
		Provider:         variant,
		ExperimentBucket: variant.BucketLabel(),
		GroupSize:        req.PartySize,
		MaxRows:          req.MaxRows,
		EventName:        req.EventName,
		Location:         strings.TrimSpace(req.Location),
		Date:             strings.TrimSpace(req.Date),
		Links:            []model.AffiliateLink{},
		GroupingOptions:  []model.GroupingOption{},
		Warnings:         []string{},
	}

	q := provider.SearchQuery{EventName: req.EventName, Location: res.Location, Date: res.Date, GroupSize: req.PartySize}
	for _, b := range s.Builders {
		target := b.BuildSearchURL(q)
		if target == "" {
			continue
		}
		role := model.RoleSecondary
		if b.Provider() == variant {
			role = model.RolePrimary
		}
		link := model.AffiliateLink{
			Provider:         b.Provider(),
			Label:            b.Label(),
			URL:              target,
			ClickURL:         s.clickURL(b.Provider(), q, req.MaxRows, role),
			ExperimentBucket: role,
		}
		if role == model.RolePrimary {
			res.Links = append([]model.AffiliateLink{link}, res.Links...)
		} else {
			res.Links = append(res.Links, link)
		}
	}
	if len(res.Links) == 0 {
		return nil, fmt.Errorf("%w: no enabled provider produced a link", ErrConfiguration)
	}

	inventory := req.Inventory
	if inventory == nil && s.Inventory != nil {
		inventory, err = s.Inventory.ListByEvent(ctx, req.EventName)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("inventory").Inc()
			log.Warn().Err(err).Str("event", req.EventName).Msg("search: inventory lookup failed")
			res.Warnings = append(res.Warnings, "seat inventory unavailable: grouping options omitted")
			inventory = nil
		}
	}
	if opts := seating.FindGroupings(inventory, seating.Request{
		PartySize:    req.PartySize,
		MaxRows:      req.MaxRows,
		StackedRows:  req.StackedRows,
		PriceCeiling: req.PriceCeiling,
	}); len(opts) > 0 {
		res.GroupingOptions = opts
	}
	return res, nil
}

func validateSearch(req SearchRequest) (model.Provider, error) {
	if req.EventName == "" {
		return "", invalid("event_name", "must not be empty")
	}
	if req.PartySize < 1 || req.PartySize > MaxPartySize {
		return "", invalid("group_size", fmt.Sprintf("must be between 1 and %d", MaxPartySize))
	}
	if req.MaxRows < 1 || req.MaxRows > MaxRowsLimit {
		return "", invalid("max_rows", fmt.Sprintf("must be between 1 and %d", MaxRowsLimit))
	}
	if req.PriceCeiling != nil && *req.PriceCeiling <= 0 {
		return "", invalid("max_price", "must be positive")
	}
	choice, ok := model.ParseProvider(req.Provider)
	if !ok {
		return "", invalid("provider", "must be seatgeek, stubhub or auto")
	}
	return choice, nil
}

func (s *TicketService) experimentConfig(ctx context.Context) experiment.Config {
	if s.Flags == nil {
		return s.Experiment
	}
	cfg, err := s.Flags.Experiment(ctx, s.Experiment)
	if err != nil {
		log.Warn().Err(err).Msg("search: experiment flags unavailable, using env defaults")
		return s.Experiment
	}
	return cfg
}

func (s *TicketService) clickURL(p model.Provider, q provider.SearchQuery, maxRows int, role string) string {
	params := url.Values{}
	params.Set("provider", string(p))
	params.Set("event_name", q.EventName)
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.Date != "" {
		params.Set("date", q.Date)
	}
	params.Set("group_size", strconv.Itoa(q.GroupSize))
	params.Set("max_rows", strconv.Itoa(maxRows))
	params.Set("bucket", role)
	return strings.TrimRight(s.ClickBaseURL, "/") + ClickPath + "?" + params.Encode()
}

// ClickRequest is one affiliate redirect.
type ClickRequest struct {
	Provider    string
	EventName   string
	Location    string
	Date        string
	GroupSize   *int
	MaxRows     *int
	BucketLabel string
	CampaignID  string
	ClientIP    string
	UserAgent   string
}

// Click records the click and returns the marketplace URL to redirect to.
// Publishing to the broker is best effort.
func (s *TicketService) Click(ctx context.Context, req ClickRequest) (string, model.ClickEvent, error) {
	p, ok := model.ParseProvider(req.Provider)
	if !ok || !p.IsVariant() {
		return "", model.ClickEvent{}, invalid("provider", "must be seatgeek or stubhub")
	}
	eventName := strings.TrimSpace(req.EventName)
	if eventName == "" {
		return "", model.ClickEvent{}, invalid("event_name", "must not be empty")
	}
	groupSize := 2
	if req.GroupSize != nil {
		if *req.GroupSize < 1 || *req.GroupSize > MaxPartySize {
			return "", model.ClickEvent{}, invalid("group_size", fmt.Sprintf("must be between 1 and %d", MaxPartySize))
		}
		groupSize = *req.GroupSize
	}

	builder := s.builder(p)
	if builder == nil {
		return "", model.ClickEvent{}, fmt.Errorf("%w: %s is disabled", ErrConfiguration, p)
	}
	target := builder.BuildSearchURL(provider.SearchQuery{
		EventName: eventName,
		Location:  strings.TrimSpace(req.Location),
		Date:      strings.TrimSpace(req.Date),
		GroupSize: groupSize,
	})
	if target == "" {
		return "", model.ClickEvent{}, fmt.Errorf("%w: %s has no link base", ErrConfiguration, p)
	}

	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	ev := s.Clicks.Record(model.ClickEvent{
		ID:          newID(),
		Provider:    string(p),
		EventName:   truncate(eventName, MaxEventNameLen),
		GroupSize:   req.GroupSize,
		MaxRows:     req.MaxRows,
		BucketLabel: truncate(req.BucketLabel, MaxBucketLabelLen),
		CampaignID:  truncate(req.CampaignID, MaxCampaignIDLen),
		ClientIP:    truncate(req.ClientIP, MaxClientIPLen),
		UserAgent:   truncate(req.UserAgent, MaxUserAgentLen),
	})
	bucket := strings.ToLower(ev.BucketLabel)
	if bucket == "" {
		bucket = "unknown"
	}
	metrics.Clicks.WithLabelValues(strings.ToLower(ev.Provider), bucket).Inc()

	if s.Publisher != nil {
		if err := s.Publisher.PublishClick(ctx, ev); err != nil {
			log.Warn().Err(err).Str("click_id", ev.ID).Msg("click: publish failed")
		}
	}
	return target, ev, nil
}

// truncate cuts s to at most n runes so it fits its click_events column.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func (s *TicketService) builder(p model.Provider) provider.URLBuilder {
	for _, b := range s.Builders {
		if b.Provider() == p {
			return b
		}
	}
	return nil
}

// Summary summarizes the most recent window clicks.
func (s *TicketService) Summary(window int) (model.ClickSummary, error) {
	if window < 1 {
		return model.ClickSummary{}, invalid("limit", "must be at least 1")
	}
	return s.Clicks.Summarize(window), nil
}

// ArchiveCounts returns archived clicks per provider since the given time.
func (s *TicketService) ArchiveCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	if s.Archive == nil {
		return nil, fmt.Errorf("%w: click archive needs MySQL", ErrConfiguration)
	}
	if since.After(time.Now()) {
		return nil, invalid("since", "must not be in the future")
	}
	return s.Archive.CountByProviderSince(ctx, since)
}

// RecentClicks returns up to n clicks, most recent first.
func (s *TicketService) RecentClicks(n int) ([]model.ClickEvent, error) {
	if n < 1 {
		return nil, invalid("limit", "must be at least 1")
	}
	return s.Clicks.Recent(n), nil
}
