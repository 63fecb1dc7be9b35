package store

import "time"

// ReportSummary is one row of the report archive listing.
type ReportSummary struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Path      string    `json:"path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArchivedReport is a report as stored in the archive.
type ArchivedReport struct {
	ReportSummary
	Objective string `json:"objective"`
	Body      string `json:"body"`
}
