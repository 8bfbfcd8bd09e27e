package database

import (
	"context"
	"fmt"
	"papersum/internal/domain"
	"strings"
)

// UserRepository persists the mock user list in SQLite.
type UserRepository struct {
	d *Database
}

func (d *Database) Users() *UserRepository {
	return &UserRepository{d: d}
}

// Load returns users in insertion order.
func (r *UserRepository) Load(ctx context.Context) ([]domain.User, error) {
	query := "select id, email, name, password from users order by position"

	rows, err := r.d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			r.d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "LoadUsers")
		}
	}()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err = rows.Scan(&u.ID, &u.Email, &u.Name, &u.Password); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		u.Email = strings.TrimSpace(u.Email)
		u.Name = strings.TrimSpace(u.Name)

		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return users, nil
}

// Save replaces the stored list with users in a single transaction.
func (r *UserRepository) Save(ctx context.Context, users []domain.User) error {
	tx, err := r.d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, "delete from users"); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	query := "insert into users (id, email, name, password, position) values (?, ?, ?, ?, ?)"
	for i, u := range users {
		if _, err = tx.ExecContext(ctx, query, u.ID, u.Email, u.Name, u.Password, i); err != nil {
			return fmt.Errorf("failed to insert user (email = %s): %w", u.Email, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
