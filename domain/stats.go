package domain

// StatsFilter narrows reporting queries to a single reference or country.
// Zero value means everything.
type StatsFilter struct {
	Reference string
	Country   string
}

// PlatformCount is the download breakdown for one installer platform
type PlatformCount struct {
	Platform  string  `json:"platform"`
	Downloads int     `json:"downloads"`
	Percent   float64 `json:"percent"`
}

// Stats holds the aggregate totals shown on the admin report
type Stats struct {
	Requests       int             `json:"requests"`
	DistinctEmails int             `json:"distinctEmails"`
	Downloads      int             `json:"downloads"`
	Platforms      []PlatformCount `json:"platforms"`
}

// CountryCount is one row of the group-by-country report
type CountryCount struct {
	Country        string `json:"country"`
	Requests       int    `json:"requests"`
	DistinctEmails int    `json:"distinctEmails" db:"distinct_emails"`
}
