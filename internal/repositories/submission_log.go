package repositories

import (
	"fmt"

	"github.com/desertthunder/moodify/internal/models"
)

// SubmissionLog implements tasks.SubmissionRecorder using [SubmissionRepository].
type SubmissionLog struct {
	repo *SubmissionRepository
}

// NewSubmissionLog creates a new SubmissionLog with the given repository
func NewSubmissionLog(repo *SubmissionRepository) *SubmissionLog {
	return &SubmissionLog{repo: repo}
}

// RecordSubmission stores one classification request and its result.
func (l *SubmissionLog) RecordSubmission(kind models.SubmissionKind, filename, mimeType string, size int64, emotion string) error {
	s := models.NewSubmission(0, kind, filename, mimeType, size, emotion)
	if err := l.repo.Create(s); err != nil {
		return fmt.Errorf("failed to log submission: %w", err)
	}
	return nil
}
