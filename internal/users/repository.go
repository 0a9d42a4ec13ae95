package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, email, name, passwordHash string, assignments []authz.RoleAssignment) (User, error)
	Update(ctx context.Context, id int64, name string, isActive bool) (User, error)
	SetAssignments(ctx context.Context, id int64, assignments []authz.RoleAssignment) (User, error)
	ListMembers(ctx context.Context, unitID string) ([]Member, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, is_active, roles, created_at, updated_at`

// List returns all users ordered by id.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Get fetches a user by ID.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// Create inserts a new user with its role assignments.
func (r *Repository) Create(ctx context.Context, email, name, passwordHash string, assignments []authz.RoleAssignment) (User, error) {
	rolesJSON, err := authz.EncodeAssignments(assignments)
	if err != nil {
		return User{}, err
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO users (email, name, password_hash, is_active, roles) VALUES ($1, $2, $3, TRUE, $4) RETURNING `+userColumns, email, name, passwordHash, rolesJSON)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, shared.ErrDuplicate
		}
		return User{}, err
	}
	return user, nil
}

// Update modifies name and active flag.
func (r *Repository) Update(ctx context.Context, id int64, name string, isActive bool) (User, error) {
	row := r.pool.QueryRow(ctx, `UPDATE users SET name = $2, is_active = $3, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, id, name, isActive)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// SetAssignments replaces the user's role assignment collection.
func (r *Repository) SetAssignments(ctx context.Context, id int64, assignments []authz.RoleAssignment) (User, error) {
	rolesJSON, err := authz.EncodeAssignments(assignments)
	if err != nil {
		return User{}, err
	}
	row := r.pool.QueryRow(ctx, `UPDATE users SET roles = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, id, rolesJSON)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// ListMembers resolves, in bulk, each user's best unit-scoped role for one
// unit. The ordering clause reuses the exact priority ladder the application
// side uses, so both can never disagree.
func (r *Repository) ListMembers(ctx context.Context, unitID string) ([]Member, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT ON (u.id) u.id, u.email, u.name, elem->>'role' AS role
		FROM users u, jsonb_array_elements(u.roles) elem
		WHERE elem->'on'->>'unit' = $1 AND u.is_active
		ORDER BY u.id, %s`, authz.RolePriorityCaseSQL("elem->>'role'"))
	rows, err := r.pool.Query(ctx, query, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		var (
			member Member
			role   string
		)
		if err := rows.Scan(&member.UserID, &member.Email, &member.Name, &role); err != nil {
			return nil, err
		}
		parsed, err := authz.ParseRoleName(role)
		if err != nil {
			return nil, err
		}
		member.Role = parsed
		members = append(members, member)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		user     User
		rolesRaw []byte
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &rolesRaw, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}
	assignments, err := authz.DecodeAssignments(rolesRaw)
	if err != nil {
		return User{}, err
	}
	user.Assignments = assignments
	return user, nil
}
