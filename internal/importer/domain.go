// Package importer ingests provider exports (CSV, Tableau) into activity
// entries.
package importer

import "time"

// BatchStatus tracks the lifecycle of an uploaded file.
type BatchStatus string

const (
	StatusPending    BatchStatus = "pending"
	StatusProcessing BatchStatus = "processing"
	StatusDone       BatchStatus = "done"
	StatusFailed     BatchStatus = "failed"
)

// Provider identifies the shape of the uploaded file.
type Provider string

const (
	// ProviderCSV is a plain CSV export with our column contract.
	ProviderCSV Provider = "csv"
	// ProviderTableau is a Tableau crosstab export, CSV-shaped with the
	// same column contract but encoded in Latin-1.
	ProviderTableau Provider = "tableau"
)

// Batch is one uploaded file waiting for, or finished with, processing.
type Batch struct {
	ID            string      `json:"id"`
	InventoryID   int64       `json:"inventory_id"`
	Category      string      `json:"category"`
	Provider      Provider    `json:"provider"`
	Filename      string      `json:"filename"`
	Status        BatchStatus `json:"status"`
	RowCount      int         `json:"row_count"`
	ImportedCount int         `json:"imported_count"`
	Error         string      `json:"error,omitempty"`
	CreatedBy     int64       `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
