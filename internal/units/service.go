package units

import (
	"context"
	"strconv"
	"strings"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Service handles unit business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the units visible under the record filter.
func (s *Service) List(ctx context.Context, filter authz.RecordFilter) ([]Unit, error) {
	return s.repo.List(ctx, filter.Int64IDs())
}

// Get fetches a single unit.
func (s *Service) Get(ctx context.Context, id int64) (Unit, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new unit and records the mutation.
func (s *Service) Create(ctx context.Context, actorID int64, code, name string, parentID *int64) (Unit, error) {
	code = strings.TrimSpace(code)
	unit, err := s.repo.Create(ctx, code, strings.TrimSpace(name), parentID)
	if err != nil {
		return Unit{}, err
	}
	s.recordAudit(ctx, actorID, "CREATE", unit)
	return unit, nil
}

// Update modifies a unit and records the mutation.
func (s *Service) Update(ctx context.Context, actorID, id int64, code, name string, parentID *int64) (Unit, error) {
	unit, err := s.repo.Update(ctx, id, strings.TrimSpace(code), strings.TrimSpace(name), parentID)
	if err != nil {
		return Unit{}, err
	}
	s.recordAudit(ctx, actorID, "UPDATE", unit)
	return unit, nil
}

// Delete removes a unit and records the mutation.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "DELETE",
			Entity:   "units",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, unit Unit) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "units",
		EntityID: strconv.FormatInt(unit.ID, 10),
		UnitID:   strconv.FormatInt(unit.ID, 10),
		Meta:     map[string]any{"code": unit.Code},
	})
}
