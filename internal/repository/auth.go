// Package repository provides persistence implementations for user accounts.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

const selectUser = `SELECT id, username, salt, hash, session FROM users`

// PostgresUserRepository stores user accounts in a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// FindByUsername returns the user with the given username, or models.ErrNotFound.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, selectUser+` WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("FindByUsername: %w", err)
	}
	return user, nil
}

// FindBySession returns the user currently holding the given session, or models.ErrNotFound.
func (r *PostgresUserRepository) FindBySession(ctx context.Context, session string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, selectUser+` WHERE session = $1`, session)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("FindBySession: %w", err)
	}
	return user, nil
}

// Create inserts a new user record.
// A duplicate username or session is reported as models.ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (id, username, salt, hash, session) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Salt, user.Hash, nullString(user.Session),
	)
	if err != nil {
		return fmt.Errorf("Create: %w", classify(err))
	}
	return nil
}

// UpdateSession replaces the session of the user with the given ID.
// An empty session clears it. Returns models.ErrNotFound if no such user exists.
func (r *PostgresUserRepository) UpdateSession(ctx context.Context, id, session string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET session = $2 WHERE id = $1`, id, nullString(session))
	if err != nil {
		return fmt.Errorf("UpdateSession: %w", classify(err))
	}
	return expectAffected(res, "UpdateSession")
}

// ClearSession removes the given session from whichever user holds it.
// Clearing a session nobody holds is not an error.
func (r *PostgresUserRepository) ClearSession(ctx context.Context, session string) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE users SET session = NULL WHERE session = $1`, session); err != nil {
		return fmt.Errorf("ClearSession: %w", err)
	}
	return nil
}

// DeleteByID removes the user with the given ID, or returns models.ErrNotFound.
func (r *PostgresUserRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteByID: %w", err)
	}
	return expectAffected(res, "DeleteByID")
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user    models.User
		session sql.NullString
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Salt, &user.Hash, &session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	user.Session = session.String
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return &user, nil
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", models.ErrConflict, pqErr.Constraint)
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
