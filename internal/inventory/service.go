package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Service handles carbon report business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the reports visible under the record filter.
func (s *Service) List(ctx context.Context, filter authz.RecordFilter, year int) ([]Report, error) {
	return s.repo.List(ctx, filter.Int64IDs(), year)
}

// Get fetches a single report.
func (s *Service) Get(ctx context.Context, id int64) (Report, error) {
	return s.repo.Get(ctx, id)
}

// Create opens a new draft report for a unit and year.
func (s *Service) Create(ctx context.Context, actorID, unitID int64, year int, title string) (Report, error) {
	if year < 2000 || year > time.Now().Year()+1 {
		return Report{}, fmt.Errorf("inventory: %w: implausible reporting year %d", shared.ErrValidation, year)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf("Carbon report %d", year)
	}
	report, err := s.repo.Create(ctx, unitID, year, title, actorID)
	if err != nil {
		return Report{}, err
	}
	s.recordAudit(ctx, actorID, "CREATE", report)
	return report, nil
}

// Rename changes a report title.
func (s *Service) Rename(ctx context.Context, actorID, id int64, title string) (Report, error) {
	report, err := s.repo.UpdateTitle(ctx, id, strings.TrimSpace(title))
	if err != nil {
		return Report{}, err
	}
	s.recordAudit(ctx, actorID, "UPDATE", report)
	return report, nil
}

// Open transitions a draft report into data collection.
func (s *Service) Open(ctx context.Context, actorID, id int64) (Report, error) {
	return s.transition(ctx, actorID, id, StatusDraft, StatusOpen, "OPEN")
}

// Close finalizes an open report; its entries become immutable.
func (s *Service) Close(ctx context.Context, actorID, id int64) (Report, error) {
	return s.transition(ctx, actorID, id, StatusOpen, StatusClosed, "CLOSE")
}

// Reopen moves a closed report back into collection.
func (s *Service) Reopen(ctx context.Context, actorID, id int64) (Report, error) {
	return s.transition(ctx, actorID, id, StatusClosed, StatusOpen, "REOPEN")
}

func (s *Service) transition(ctx context.Context, actorID, id int64, from, to Status, auditAction string) (Report, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if current.Status != from {
		return Report{}, fmt.Errorf("inventory: cannot move report from %s to %s", current.Status, to)
	}
	report, err := s.repo.SetStatus(ctx, id, to)
	if err != nil {
		return Report{}, err
	}
	s.recordAudit(ctx, actorID, auditAction, report)
	return report, nil
}

// EnsureMutable returns ErrInventoryClosed when the report no longer accepts
// data mutations.
func (s *Service) EnsureMutable(ctx context.Context, id int64) (Report, error) {
	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if !report.Mutable() {
		return Report{}, shared.ErrInventoryClosed
	}
	return report, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, report Report) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "inventories",
		EntityID: strconv.FormatInt(report.ID, 10),
		UnitID:   strconv.FormatInt(report.UnitID, 10),
		Meta:     map[string]any{"year": report.Year, "status": string(report.Status)},
	})
}
