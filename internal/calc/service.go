// Package calc turns collected activity data into CO2e totals.
package calc

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/entries"
	"github.com/carbonledger/carbonledger/internal/factors"
	"github.com/carbonledger/carbonledger/internal/inventory"
)

// EntrySource lists activity data for a report.
type EntrySource interface {
	List(ctx context.Context, filter authz.RecordFilter, inventoryID int64, category entries.Category) ([]entries.Entry, error)
}

// ReportSource resolves carbon reports.
type ReportSource interface {
	Get(ctx context.Context, id int64) (inventory.Report, error)
}

// FactorSource loads the factor set for a reporting year.
type FactorSource interface {
	SetForYear(ctx context.Context, year int) (factors.FactorSet, error)
}

// CategoryTotal aggregates one activity category.
type CategoryTotal struct {
	Category   entries.Category `json:"category"`
	EntryCount int              `json:"entry_count"`
	TotalKgCO2 float64          `json:"total_kg_co2e"`
}

// MissingFactor identifies an entry that could not be converted because no
// factor matches its key for the report's year.
type MissingFactor struct {
	EntryID  int64  `json:"entry_id"`
	Category string `json:"category"`
	Key      string `json:"key"`
}

// Summary is the full emission result for one carbon report.
type Summary struct {
	InventoryID    int64           `json:"inventory_id"`
	Year           int             `json:"year"`
	Categories     []CategoryTotal `json:"categories"`
	TotalKgCO2     float64         `json:"total_kg_co2e"`
	MissingFactors []MissingFactor `json:"missing_factors,omitempty"`
}

// Service computes emission summaries. Concurrent requests for the same
// year's factor set collapse into a single load.
type Service struct {
	entries EntrySource
	reports ReportSource
	factors FactorSource
	group   singleflight.Group
}

// NewService builds a Service instance.
func NewService(entrySource EntrySource, reports ReportSource, factorSource FactorSource) *Service {
	return &Service{entries: entrySource, reports: reports, factors: factorSource}
}

// Report resolves the carbon report a summary is requested for.
func (s *Service) Report(ctx context.Context, id int64) (inventory.Report, error) {
	return s.reports.Get(ctx, id)
}

// Summarize converts every visible entry of a report into kgCO2e and
// aggregates per category. Entries without a matching factor are reported,
// not silently dropped.
func (s *Service) Summarize(ctx context.Context, filter authz.RecordFilter, report inventory.Report) (Summary, error) {
	set, err := s.factorSet(ctx, report.Year)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{InventoryID: report.ID, Year: report.Year}
	for _, category := range []entries.Category{entries.CategoryEquipment, entries.CategoryHeadcount, entries.CategoryTravel} {
		items, err := s.entries.List(ctx, filter, report.ID, category)
		if err != nil {
			return Summary{}, err
		}
		total := CategoryTotal{Category: category}
		for _, entry := range items {
			total.EntryCount++
			factor, ok := set.Lookup(string(category), entry.FactorKey)
			if !ok {
				summary.MissingFactors = append(summary.MissingFactors, MissingFactor{
					EntryID:  entry.ID,
					Category: string(category),
					Key:      entry.FactorKey,
				})
				continue
			}
			total.TotalKgCO2 += entry.Quantity * factor.Value
		}
		summary.Categories = append(summary.Categories, total)
		summary.TotalKgCO2 += total.TotalKgCO2
	}

	sort.Slice(summary.MissingFactors, func(i, j int) bool {
		return summary.MissingFactors[i].EntryID < summary.MissingFactors[j].EntryID
	})
	return summary, nil
}

func (s *Service) factorSet(ctx context.Context, year int) (factors.FactorSet, error) {
	v, err, _ := s.group.Do(fmt.Sprintf("factors:%d", year), func() (any, error) {
		return s.factors.SetForYear(ctx, year)
	})
	if err != nil {
		return factors.FactorSet{}, err
	}
	return v.(factors.FactorSet), nil
}
