package models

import (
	"fmt"
	"time"
)

// SubmissionKind identifies which detection endpoint a submission went to.
type SubmissionKind string

const (
	SubmissionSpeech SubmissionKind = "speech"
	SubmissionFacial SubmissionKind = "facial"
	SubmissionText   SubmissionKind = "text"
)

// Valid reports whether k is one of the known kinds.
func (k SubmissionKind) Valid() bool {
	switch k {
	case SubmissionSpeech, SubmissionFacial, SubmissionText:
		return true
	}
	return false
}

// Submission records one request sent for classification and the emotion it produced.
type Submission struct {
	id        string
	sequence  int
	kind      SubmissionKind
	filename  string
	mimeType  string
	size      int64
	emotion   string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

var _ Model = (*Submission)(nil)

// NewSubmission creates a [Submission] with creation timestamps set to now.
func NewSubmission(sequence int, kind SubmissionKind, filename, mimeType string, size int64, emotion string) *Submission {
	now := time.Now()
	return &Submission{
		sequence:  sequence,
		kind:      kind,
		filename:  filename,
		mimeType:  mimeType,
		size:      size,
		emotion:   emotion,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Submission) ID() string                { return s.id }
func (s *Submission) Sequence() int             { return s.sequence }
func (s *Submission) Kind() SubmissionKind      { return s.kind }
func (s *Submission) Filename() string          { return s.filename }
func (s *Submission) MIMEType() string          { return s.mimeType }
func (s *Submission) Size() int64               { return s.size }
func (s *Submission) Emotion() string           { return s.emotion }
func (s *Submission) CreatedAt() time.Time      { return s.createdAt }
func (s *Submission) UpdatedAt() time.Time      { return s.updatedAt }
func (s *Submission) DeletedAt() *time.Time     { return s.deletedAt }
func (s *Submission) SetID(id string)           { s.id = id }
func (s *Submission) SetSequence(seq int)       { s.sequence = seq }
func (s *Submission) SetEmotion(e string)       { s.emotion = e }
func (s *Submission) SetCreatedAt(t time.Time)  { s.createdAt = t }
func (s *Submission) SetUpdatedAt(t time.Time)  { s.updatedAt = t }
func (s *Submission) SetDeletedAt(t *time.Time) { s.deletedAt = t }

// Validate checks required fields.
func (s *Submission) Validate() error {
	if s.id == "" {
		return fmt.Errorf("submission ID is required")
	}
	if !s.kind.Valid() {
		return fmt.Errorf("invalid submission kind: %q", s.kind)
	}
	if s.size < 0 {
		return fmt.Errorf("submission size cannot be negative")
	}
	return nil
}
