package users

import (
	"time"

	"github.com/carbonledger/carbonledger/internal/authz"
)

// User represents a managed account.
type User struct {
	ID          int64                  `json:"id"`
	Email       string                 `json:"email"`
	Name        string                 `json:"name"`
	IsActive    bool                   `json:"is_active"`
	Assignments []authz.RoleAssignment `json:"roles"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Member is a user's effective standing within one unit: the single
// highest-priority unit-scoped role they hold there.
type Member struct {
	UserID int64          `json:"user_id"`
	Email  string         `json:"email"`
	Name   string         `json:"name"`
	Role   authz.RoleName `json:"role"`
}
