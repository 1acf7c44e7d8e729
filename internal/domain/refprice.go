package domain

import "time"

// VenueQuote is one exchange's mid price for an asset.
type VenueQuote struct {
	Venue string  `json:"venue"`
	Mid   float64 `json:"mid"`
}

// AssetReference is the aggregated reference price for one asset, the median
// mid across the venues that answered. Reference prices are observability
// signals attached to the run digest; they do not alter verdicts.
type AssetReference struct {
	Asset          string       `json:"asset"`
	ReferencePrice float64      `json:"reference_price"`
	Quotes         []VenueQuote `json:"quotes"`
	ScannedAt      time.Time    `json:"scanned_at"`
}
