package domain

import "time"

// Download is one row of the append-only download log. A reference may
// legitimately produce zero, one or many of these.
type Download struct {
	ID           int64     `json:"id"`
	DownloadDate time.Time `json:"downloadDate" db:"download_date"`
	ClientServer string    `json:"clientServer" db:"client_server"`
	Reference    string    `json:"reference"`
	Filename     string    `json:"filename"`
}

// RequestState is the lifecycle state of a reference
type RequestState int

const (
	// StateIssued - created by intake, nothing downloaded yet
	StateIssued RequestState = iota
	// StateActive - at least one download recorded; references never expire
	StateActive
)

// Stringer implementation
func (s RequestState) String() string {
	switch s {
	case StateIssued:
		return "issued"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// StateOf returns the state of a reference with the given download count
func StateOf(downloads int) RequestState {
	if downloads > 0 {
		return StateActive
	}
	return StateIssued
}

// RequestSummary is a request joined with its download count for reporting
type RequestSummary struct {
	DownloadRequest
	Downloads int `json:"downloads"`
}

// State of the summarized request
func (r *RequestSummary) State() RequestState {
	return StateOf(r.Downloads)
}
