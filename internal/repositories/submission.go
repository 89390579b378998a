package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
)

// SubmissionRepository implements [models.Repository] for [models.Submission] persistence.
type SubmissionRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Submission] = (*SubmissionRepository)(nil)

// NewSubmissionRepository creates a new [SubmissionRepository] with the given database connection
func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, sequence, kind, filename, mime_type, size_bytes, emotion, created_at, updated_at, deleted_at`

// Create inserts a new submission with generated ID and sequence
func (r *SubmissionRepository) Create(s *models.Submission) error {
	sequence, err := NextSequence(r.db, "submissions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	s.SetID(shared.GenerateID())
	s.SetSequence(sequence)

	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO submissions (id, sequence, kind, filename, mime_type, size_bytes, emotion, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, s.ID(), s.Sequence(), string(s.Kind()), s.Filename(), s.MIMEType(), s.Size(), s.Emotion(), s.CreatedAt(), s.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

// Get retrieves a submission by ID, excluding soft-deleted rows
func (r *SubmissionRepository) Get(id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = ? AND deleted_at IS NULL`

	s, err := scanSubmission(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("submission not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query submission: %w", err)
	}
	return s, nil
}

// Update stores the detected emotion of an existing submission
func (r *SubmissionRepository) Update(s *models.Submission) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	s.SetUpdatedAt(now)

	query := `
		UPDATE submissions
		SET emotion = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, s.Emotion(), now, s.ID())
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("submission not found or already deleted: %s", s.ID())
	}

	return nil
}

// Delete soft-deletes a submission by ID
func (r *SubmissionRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE submissions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("submission not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves submissions newest first.
//
// Supported criteria: "kind" (string) and "limit" (int).
func (r *SubmissionRepository) List(criteria map[string]any) ([]*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE deleted_at IS NULL`
	args := []any{}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return submissions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var (
		id        string
		sequence  int
		kind      string
		filename  string
		mimeType  string
		size      int64
		emotion   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &kind, &filename, &mimeType, &size, &emotion, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	s := models.NewSubmission(sequence, models.SubmissionKind(kind), filename, mimeType, size, emotion)
	s.SetID(id)
	s.SetCreatedAt(createdAt)
	s.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		s.SetDeletedAt(&deletedAt.Time)
	}
	return s, nil
}
