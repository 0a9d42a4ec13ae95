package entries

import (
	"fmt"
	"time"

	"github.com/carbonledger/carbonledger/internal/shared"
)

// Category classifies what kind of activity an entry records.
type Category string

const (
	// CategoryEquipment is powered equipment (kWh draw).
	CategoryEquipment Category = "equipment"
	// CategoryHeadcount is staff presence (person-months).
	CategoryHeadcount Category = "headcount"
	// CategoryTravel is professional travel (km by transport mode).
	CategoryTravel Category = "travel"
)

// ParseCategory validates a raw category string.
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategoryEquipment, CategoryHeadcount, CategoryTravel:
		return Category(raw), nil
	}
	return "", fmt.Errorf("entries: unknown category %q", raw)
}

// PermissionPath maps the category onto its authorization resource path.
func (c Category) PermissionPath() string {
	switch c {
	case CategoryEquipment:
		return shared.PathEquipment
	case CategoryHeadcount:
		return shared.PathHeadcount
	case CategoryTravel:
		return shared.PathProfessionalTravel
	}
	return ""
}

// Entry is one collected activity data point inside a carbon report.
type Entry struct {
	ID          int64     `json:"id"`
	InventoryID int64     `json:"inventory_id"`
	UnitID      int64     `json:"unit_id"`
	Category    Category  `json:"category"`
	Label       string    `json:"label"`
	Quantity    float64   `json:"quantity"`
	UnitMeasure string    `json:"unit_measure"`
	FactorKey   string    `json:"factor_key"`
	Synced      bool      `json:"synced"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
