package inventory

import "time"

// Status tracks a carbon report through its lifecycle.
type Status string

const (
	// StatusDraft is a report being prepared, invisible to reviewers.
	StatusDraft Status = "draft"
	// StatusOpen is a report collecting activity data.
	StatusOpen Status = "open"
	// StatusClosed is a finalized report; its data entries are frozen.
	StatusClosed Status = "closed"
)

// Report is a per-unit carbon inventory for one reporting year.
type Report struct {
	ID        int64     `json:"id"`
	UnitID    int64     `json:"unit_id"`
	Year      int       `json:"year"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Mutable reports whether data entries may still be attached.
func (r Report) Mutable() bool {
	return r.Status != StatusClosed
}
