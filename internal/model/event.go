package model

// Venue is the normalized venue of a marketplace event.
type Venue struct {
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// EventRecord is a marketplace event normalized across providers.
// LowestPrice is nil when the provider does not publish one.
type EventRecord struct {
	Provider      Provider `json:"provider"`
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	DatetimeLocal string   `json:"datetime_local"`
	URL           string   `json:"url"`
	Venue         Venue    `json:"venue"`
	LowestPrice   *float64 `json:"lowest_price"`
}
