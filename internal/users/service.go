package users

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Service handles user administration logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches a single user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new user with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, actorID int64, email, name, password string, assignments []authz.RoleAssignment) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, errors.New("users: email required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.Create(ctx, email, strings.TrimSpace(name), string(hash), assignments)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actorID, "CREATE", user)
	return user, nil
}

// Update modifies a user's profile fields.
func (s *Service) Update(ctx context.Context, actorID, id int64, name string, isActive bool) (User, error) {
	user, err := s.repo.Update(ctx, id, strings.TrimSpace(name), isActive)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actorID, "UPDATE", user)
	return user, nil
}

// Deactivate disables an account without deleting its history.
func (s *Service) Deactivate(ctx context.Context, actorID, id int64) (User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.Update(ctx, id, current.Name, false)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actorID, "DEACTIVATE", user)
	return user, nil
}

// SetAssignments replaces the user's role assignments. The collection arrives
// already decoded, so every role name has been validated at the boundary.
func (s *Service) SetAssignments(ctx context.Context, actorID, id int64, assignments []authz.RoleAssignment) (User, error) {
	user, err := s.repo.SetAssignments(ctx, id, assignments)
	if err != nil {
		return User{}, err
	}
	s.recordAudit(ctx, actorID, "SET_ROLES", user)
	return user, nil
}

// ListMembers returns each active user's best role for the unit.
func (s *Service) ListMembers(ctx context.Context, unitID string) ([]Member, error) {
	return s.repo.ListMembers(ctx, unitID)
}

// EffectiveRole resolves a single user's best role for a unit in application
// code; it must agree with the SQL side of ListMembers.
func (s *Service) EffectiveRole(ctx context.Context, userID int64, unitID string) (authz.RoleName, bool, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", false, err
	}
	role, ok := authz.PickRoleForUnit(user.Assignments, unitID)
	return role, ok, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, user User) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "users",
		EntityID: strconv.FormatInt(user.ID, 10),
		Meta:     map[string]any{"email": user.Email},
	})
}
