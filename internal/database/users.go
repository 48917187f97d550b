package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/planwise/planwise/internal/models"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = sql.ErrNoRows

// CreateUser inserts a new user with its password hash. Email is unique.
func (d *Database) CreateUser(user *models.User, passwordHash string) error {
	if user == nil {
		return fmt.Errorf("user cannot be nil")
	}
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO users (id, email, full_name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := d.db.Exec(d.q(query),
		user.ID,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.FullName,
		passwordHash,
		formatTime(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user and its password hash by email.
func (d *Database) GetUserByEmail(email string) (*models.User, string, error) {
	query := `SELECT id, email, full_name, password_hash, created_at FROM users WHERE email = ?`

	var u models.User
	var fullName sql.NullString
	var hash, createdAt string
	err := d.db.QueryRow(d.q(query), strings.ToLower(strings.TrimSpace(email))).Scan(
		&u.ID, &u.Email, &fullName, &hash, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}
	u.FullName = fullName.String
	u.CreatedAt = parseTime(createdAt)
	return &u, hash, nil
}

// GetUser retrieves a user by ID.
func (d *Database) GetUser(id string) (*models.User, error) {
	query := `SELECT id, email, full_name, created_at FROM users WHERE id = ?`

	var u models.User
	var fullName sql.NullString
	var createdAt string
	err := d.db.QueryRow(d.q(query), id).Scan(&u.ID, &u.Email, &fullName, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.FullName = fullName.String
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// UpdateUserPassword replaces a user's password hash.
func (d *Database) UpdateUserPassword(id, passwordHash string) error {
	result, err := d.db.Exec(d.q(`UPDATE users SET password_hash = ? WHERE id = ?`), passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}
