package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"nietladen/internal/models"
)

const userColumns = `id, email, password_hash, name, roles, created_at, updated_at`

func scanUserRow(row pgx.Row, u *models.User) error {
	var roles []string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.Roles = toRoles(roles)
	return nil
}

func toRoles(in []string) []models.Role {
	out := make([]models.Role, 0, len(in))
	for _, r := range in {
		out = append(out, models.Role(r))
	}
	return out
}

func fromRoles(in []models.Role) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		out = append(out, string(r))
	}
	return out
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := d.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUserRow(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (d *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := scanUserRow(d.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// GetUserByEmail matches case-insensitively.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	if err := scanUserRow(d.q.QueryRow(ctx, query, email), &u); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, name, roles)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := d.q.QueryRow(ctx, query, u.Email, u.PasswordHash, u.Name, fromRoles(u.Roles)).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapError(err)
}

func (d *DB) UpdateUserRoles(ctx context.Context, id int64, roles []models.Role) error {
	query := `UPDATE users SET roles = $2, updated_at = NOW() WHERE id = $1`
	return affected(d.q.Exec(ctx, query, id, fromRoles(roles)))
}

func (d *DB) UpdateUserPassword(ctx context.Context, id int64, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	return affected(d.q.Exec(ctx, query, id, hash))
}

// DeleteUser removes a user; guides they approved keep a NULL approver.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	return affected(d.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
}

func (d *DB) ListUserEmailsByRole(ctx context.Context, role models.Role) ([]string, error) {
	rows, err := d.q.Query(ctx, `SELECT email FROM users WHERE $1 = ANY(roles) ORDER BY email`, string(role))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
