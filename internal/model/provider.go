package model

import "strings"

// Provider names a ticket marketplace.  The two concrete values are the
// experiment variants; ProviderAuto is only valid as a request-level choice
// and asks the backend to pick a variant.
type Provider string

const (
	ProviderSeatGeek Provider = "seatGeek" // variant A
	ProviderStubHub  Provider = "stubHub"  // variant B
	ProviderAuto     Provider = "auto"     // let the experiment decide
)

// IsVariant reports whether p is one of the concrete marketplaces.
func (p Provider) IsVariant() bool {
	return p == ProviderSeatGeek || p == ProviderStubHub
}

// BucketLabel is the short tag written into click events and responses.
func (p Provider) BucketLabel() string {
	return string(p)
}

// ParseProvider maps loose user or operator input ("SeatGeek", "stubhub",
// "AUTO", "") onto a Provider.  Empty input yields ProviderAuto.  The second
// return value is false when the input names nothing we know.
func ParseProvider(s string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ProviderAuto, true
	case "seatgeek", "seat_geek", "sg":
		return ProviderSeatGeek, true
	case "stubhub", "stub_hub", "sh":
		return ProviderStubHub, true
	}
	return "", false
}
