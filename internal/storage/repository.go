package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flor3z/presence-card/internal/profile"
)

// profileRowID pins the table to a single row
const profileRowID = 1

// ErrProfileNotFound is returned when no profile has been stored yet
var ErrProfileNotFound = errors.New("profile not found")

// Repository handles all database operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository with SQLite
func NewRepository(dbPath string) (*Repository, error) {
	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases alive across calls
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the database schema
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// GetProfile returns the stored profile
func (r *Repository) GetProfile() (*ProfileRecord, error) {
	var (
		rec  ProfileRecord
		data string
	)
	err := r.db.QueryRow(
		`SELECT id, data, created_at, updated_at FROM profiles WHERE id = ?`,
		profileRowID,
	).Scan(&rec.ID, &data, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &rec.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return &rec, nil
}

// CreateProfile inserts the profile row; it fails if one already exists
func (r *Repository) CreateProfile(p profile.Profile) (*ProfileRecord, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	now := time.Now().UTC()
	if _, err := r.db.Exec(
		`INSERT INTO profiles (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		profileRowID, string(data), now, now,
	); err != nil {
		return nil, err
	}

	return &ProfileRecord{ID: profileRowID, Profile: p, CreatedAt: now, UpdatedAt: now}, nil
}

// UpdateProfile replaces the stored profile, creating it if none exists
func (r *Repository) UpdateProfile(p profile.Profile) (*ProfileRecord, error) {
	existing, err := r.GetProfile()
	if errors.Is(err, ErrProfileNotFound) {
		return r.CreateProfile(p)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	now := time.Now().UTC()
	if _, err := r.db.Exec(
		`UPDATE profiles SET data = ?, updated_at = ? WHERE id = ?`,
		string(data), now, existing.ID,
	); err != nil {
		return nil, err
	}

	existing.Profile = p
	existing.UpdatedAt = now
	return existing, nil
}

// Seed stores p only when no profile exists yet. It reports whether a row
// was created.
func (r *Repository) Seed(p profile.Profile) (bool, error) {
	_, err := r.GetProfile()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return false, err
	}

	if _, err := r.CreateProfile(p); err != nil {
		return false, fmt.Errorf("failed to seed profile: %w", err)
	}
	return true, nil
}
