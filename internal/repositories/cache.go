package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
)

const (
	// KeySession holds the authenticated [models.Session].
	KeySession = "user"
	// KeyProfile holds the last known [models.Profile].
	KeyProfile = "userProfileCache"
)

// CacheRepository is a JSON key-value store. Every Put replaces the previous value.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new [CacheRepository] with the given database connection
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get decodes the value stored under key into v.
func (r *CacheRepository) Get(key string, v any) error {
	var raw string
	err := r.db.QueryRow(`SELECT value FROM cache_entries WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", shared.ErrCacheMiss, key)
	}
	if err != nil {
		return fmt.Errorf("failed to query cache: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return nil
}

// Put stores v under key, replacing any previous value.
func (r *CacheRepository) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}

	query := `
		INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, string(data), time.Now()); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *CacheRepository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// UpdatedAt returns when key was last written.
func (r *CacheRepository) UpdatedAt(key string) (time.Time, error) {
	var t time.Time
	err := r.db.QueryRow(`SELECT updated_at FROM cache_entries WHERE key = ?`, key).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", shared.ErrCacheMiss, key)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query cache: %w", err)
	}
	return t, nil
}

// Session returns the stored session.
func (r *CacheRepository) Session() (*models.Session, error) {
	var s models.Session
	if err := r.Get(KeySession, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSession stores s as the current session.
func (r *CacheRepository) SaveSession(s *models.Session) error {
	return r.Put(KeySession, s)
}

// ClearSession forgets the stored session.
func (r *CacheRepository) ClearSession() error {
	return r.Delete(KeySession)
}

// Profile returns the cached profile with its lists normalized.
func (r *CacheRepository) Profile() (*models.Profile, error) {
	var p models.Profile
	if err := r.Get(KeyProfile, &p); err != nil {
		return nil, err
	}
	p = p.Normalize()
	return &p, nil
}

// SaveProfile caches p.
func (r *CacheRepository) SaveProfile(p models.Profile) error {
	return r.Put(KeyProfile, p.Normalize())
}
