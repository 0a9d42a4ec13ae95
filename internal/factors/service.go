package factors

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/carbonledger/carbonledger/internal/shared"
)

// Service handles emission factor business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns factors, optionally filtered by category and year. An empty
// category or a zero year means no filter.
func (s *Service) List(ctx context.Context, category string, year int) ([]Factor, error) {
	return s.repo.List(ctx, strings.TrimSpace(category), year)
}

// SetForYear loads the full factor set for one reporting year as a lookup
// index.
func (s *Service) SetForYear(ctx context.Context, year int) (FactorSet, error) {
	items, err := s.repo.ListByYear(ctx, year)
	if err != nil {
		return FactorSet{}, err
	}
	return NewFactorSet(year, items), nil
}

// Get fetches one factor by id.
func (s *Service) Get(ctx context.Context, id int64) (Factor, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new factor. Category, key and year identify it uniquely.
func (s *Service) Create(ctx context.Context, actorID int64, f Factor) (Factor, error) {
	f.Category = strings.TrimSpace(f.Category)
	f.Key = strings.TrimSpace(f.Key)
	if err := validate(f); err != nil {
		return Factor{}, err
	}
	created, err := s.repo.Create(ctx, f)
	if err != nil {
		return Factor{}, err
	}
	s.recordAudit(ctx, actorID, "factor.create", created)
	return created, nil
}

// Update rewrites the value, measure and source of an existing factor. The
// identifying triple is immutable; superseded values get a new year row.
func (s *Service) Update(ctx context.Context, actorID, id int64, value float64, unitMeasure, source string) (Factor, error) {
	if value <= 0 {
		return Factor{}, fmt.Errorf("factors: %w: value must be positive", shared.ErrValidation)
	}
	updated, err := s.repo.Update(ctx, Factor{ID: id, Value: value, UnitMeasure: unitMeasure, Source: source})
	if err != nil {
		return Factor{}, err
	}
	s.recordAudit(ctx, actorID, "factor.update", updated)
	return updated, nil
}

// Delete removes a factor.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "factor.delete", current)
	return nil
}

func validate(f Factor) error {
	if f.Category == "" || f.Key == "" {
		return fmt.Errorf("factors: %w: category and key are required", shared.ErrValidation)
	}
	if f.Year < 2000 {
		return fmt.Errorf("factors: %w: implausible year %d", shared.ErrValidation, f.Year)
	}
	if f.Value <= 0 {
		return fmt.Errorf("factors: %w: value must be positive", shared.ErrValidation)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, f Factor) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "emission_factors",
		EntityID: strconv.FormatInt(f.ID, 10),
		Meta:     map[string]any{"category": f.Category, "key": f.Key, "year": f.Year},
	})
}
