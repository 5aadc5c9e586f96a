package model

// ClickEvent is one outbound redirect to a marketplace.  It is created at
// click time, stamped by the aggregator and never modified afterwards.
//
// Fields:
//	ID            - random identifier assigned when the click is recorded.
//	Provider      - marketplace the user was sent to.
//	EventName     - free-text event query.
//	GroupSize     - party size carried on the link, if any.
//	MaxRows       - row tolerance carried on the link, if any.
//	BucketLabel   - attribution tag ("primary", "secondary" or a provider name).
//	CampaignID    - affiliate campaign identifier, if any.
//	ClientIP      - caller address as seen by the server.
//	UserAgent     - caller user agent.
//	TimestampUnix - seconds since epoch, set by the aggregator.
type ClickEvent struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	EventName     string `json:"event_name"`
	GroupSize     *int   `json:"group_size,omitempty"`
	MaxRows       *int   `json:"max_rows,omitempty"`
	BucketLabel   string `json:"bucket_label"`
	CampaignID    string `json:"campaign_id,omitempty"`
	ClientIP      string `json:"client_ip,omitempty"`
	UserAgent     string `json:"user_agent"`
	TimestampUnix int64  `json:"ts"`
}

// ClickSummary is derived from a window of the click log on demand and is
// never stored.
type ClickSummary struct {
	// Window is the window the caller asked for.  Total is how many events
	// the log held within it, so Total <= Window.
	Window         int            `json:"window"`
	Total          int            `json:"total"`
	ByProvider     map[string]int `json:"by_provider"`
	ByBucket       map[string]int `json:"by_bucket"`
	ByCampaign     map[string]int `json:"by_campaign"`
	FirstTimestamp *int64         `json:"first_ts"`
	LastTimestamp  *int64         `json:"last_ts"`
}
