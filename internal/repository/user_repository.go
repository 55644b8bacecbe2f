package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shibbu04/EventBook/internal/model"
	"github.com/shibbu04/EventBook/internal/utils"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, name, email, mobile, password_hash, role, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Mobile, &u.PasswordHash,
		&u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its ID. The email is normalized
// to lower case; the password is bcrypt-hashed before it is stored.
func (r *UserRepo) Create(ctx context.Context, name, email, mobile, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, mobile, password_hash, role) VALUES (?,?,?,?,?)",
		name, email, mobile, hash, role)
	if err != nil {
		// MySQL duplicate-key error on the unique email index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns users matching an optional name/email search, newest
// first, plus the total count for pagination. Admin-only surface.
func (r *UserRepo) List(ctx context.Context, search string, page, limit int) ([]model.User, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if search != "" {
		where += " AND (name LIKE ? OR email LIKE ?)"
		pat := "%" + search + "%"
		args = append(args, pat, pat)
	}

	page, limit = normalizePage(page, limit)

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users"+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// UpdateRole changes a user's role to "user" or "admin".
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	if role != model.RoleUser && role != model.RoleAdmin {
		return errors.New("invalid role")
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a user that has no confirmed bookings; users with
// live bookings must cancel them first so the ledger stays auditable.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	var confirmed int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE user_id=? AND status=?",
		id, model.BookingStatusConfirmed).Scan(&confirmed)
	if err != nil {
		return fmt.Errorf("count bookings: %w", err)
	}
	if confirmed > 0 {
		return fmt.Errorf("%w: user has %d confirmed bookings", ErrConflict, confirmed)
	}

	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
