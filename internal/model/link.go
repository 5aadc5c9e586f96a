package model

// Link roles assigned relative to the experiment variant.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// AffiliateLink is one call-to-action returned by a ticket search.  URL is
// the direct affiliate search URL; ClickURL routes through our click
// tracker before redirecting to URL.
type AffiliateLink struct {
	Provider         Provider `json:"provider"`
	Label            string   `json:"label"`
	URL              string   `json:"url"`
	ClickURL         string   `json:"click_url"`
	ExperimentBucket string   `json:"experiment_bucket"`
}
