package entries

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/inventory"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// ReportGuard resolves the report an entry belongs to and rejects mutations
// against reports that no longer accept them.
type ReportGuard interface {
	Get(ctx context.Context, id int64) (inventory.Report, error)
	EnsureMutable(ctx context.Context, id int64) (inventory.Report, error)
}

// Service handles activity data business logic.
type Service struct {
	repo    RepositoryPort
	reports ReportGuard
	audit   *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, reports ReportGuard, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, reports: reports, audit: audit}
}

// List returns one category of entries inside a report, restricted to the
// units the record filter grants.
func (s *Service) List(ctx context.Context, filter authz.RecordFilter, inventoryID int64, category Category) ([]Entry, error) {
	return s.repo.List(ctx, inventoryID, category, filter.Int64IDs())
}

// Get fetches one entry by id.
func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	return s.repo.Get(ctx, id)
}

// Report resolves the carbon report an entry would be created in.
func (s *Service) Report(ctx context.Context, id int64) (inventory.Report, error) {
	return s.reports.Get(ctx, id)
}

// CreateParams carries the fields callers may set on a new entry.
type CreateParams struct {
	InventoryID int64
	Category    Category
	Label       string
	Quantity    float64
	UnitMeasure string
	FactorKey   string
}

// Create adds a manually collected entry to an open report. The entry
// inherits the report's unit.
func (s *Service) Create(ctx context.Context, actorID int64, p CreateParams) (Entry, error) {
	if err := validateParams(p.Label, p.Quantity); err != nil {
		return Entry{}, err
	}
	report, err := s.reports.EnsureMutable(ctx, p.InventoryID)
	if err != nil {
		return Entry{}, err
	}
	entry, err := s.repo.Create(ctx, Entry{
		InventoryID: p.InventoryID,
		UnitID:      report.UnitID,
		Category:    p.Category,
		Label:       strings.TrimSpace(p.Label),
		Quantity:    p.Quantity,
		UnitMeasure: strings.TrimSpace(p.UnitMeasure),
		FactorKey:   strings.TrimSpace(p.FactorKey),
		Source:      "manual",
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, actorID, "entry.create", entry)
	return entry, nil
}

// UpdateParams carries the mutable fields of an existing entry.
type UpdateParams struct {
	Label       string
	Quantity    float64
	UnitMeasure string
	FactorKey   string
}

// Update rewrites the measured fields of an entry. The caller is expected to
// have cleared record-level access first.
func (s *Service) Update(ctx context.Context, actorID int64, current Entry, p UpdateParams) (Entry, error) {
	if err := validateParams(p.Label, p.Quantity); err != nil {
		return Entry{}, err
	}
	if _, err := s.reports.EnsureMutable(ctx, current.InventoryID); err != nil {
		return Entry{}, err
	}
	current.Label = strings.TrimSpace(p.Label)
	current.Quantity = p.Quantity
	current.UnitMeasure = strings.TrimSpace(p.UnitMeasure)
	current.FactorKey = strings.TrimSpace(p.FactorKey)
	entry, err := s.repo.Update(ctx, current)
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, actorID, "entry.update", entry)
	return entry, nil
}

// Delete removes an entry from a still-open report.
func (s *Service) Delete(ctx context.Context, actorID int64, current Entry) error {
	if _, err := s.reports.EnsureMutable(ctx, current.InventoryID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, current.ID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "entry.delete", current)
	return nil
}

func validateParams(label string, quantity float64) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("entries: %w: label is required", shared.ErrValidation)
	}
	if quantity < 0 {
		return fmt.Errorf("entries: %w: quantity must not be negative", shared.ErrValidation)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entry Entry) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "entries",
		EntityID: strconv.FormatInt(entry.ID, 10),
		UnitID:   strconv.FormatInt(entry.UnitID, 10),
		Meta:     map[string]any{"category": string(entry.Category), "inventory_id": entry.InventoryID},
	})
}
