package repositories

import (
	"testing"

	"github.com/desertthunder/moodify/internal/models"
)

func TestSubmissionRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSubmissionRepository(db)
			s := models.NewSubmission(0, models.SubmissionKind("video"), "clip.mp4", "video/mp4", 1, "")

			if err := repo.Create(s); err == nil {
				t.Fatal("expected validation error for unknown kind")
			}
		})

		t.Run("MissingSequenceTable", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if _, err := db.Exec("DROP TABLE submissions_sequence"); err != nil {
				t.Fatalf("failed to drop table: %v", err)
			}

			repo := NewSubmissionRepository(db)
			s := models.NewSubmission(0, models.SubmissionSpeech, "a.wav", "audio/wav", 1, "")
			if err := repo.Create(s); err == nil {
				t.Fatal("expected sequence error")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if _, err := NewSubmissionRepository(db).Get("nonexistent-id"); err == nil {
				t.Fatal("expected error when getting nonexistent submission")
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			s := models.NewSubmission(0, models.SubmissionSpeech, "a.wav", "audio/wav", 1, "")
			s.SetID("nonexistent-id")
			if err := NewSubmissionRepository(db).Update(s); err == nil {
				t.Fatal("expected error when updating nonexistent submission")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("AlreadyDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSubmissionRepository(db)
			s := models.NewSubmission(0, models.SubmissionSpeech, "a.wav", "audio/wav", 1, "")
			if err := repo.Create(s); err != nil {
				t.Fatalf("failed to create submission: %v", err)
			}
			if err := repo.Delete(s.ID()); err != nil {
				t.Fatalf("failed to delete submission: %v", err)
			}
			if err := repo.Delete(s.ID()); err == nil {
				t.Fatal("expected error when deleting twice")
			}
		})
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		cache := NewCacheRepository(db)
		if err := cache.Put("k", "v"); err == nil {
			t.Error("expected error writing to a closed database")
		}
		if _, err := NewSubmissionRepository(db).List(nil); err == nil {
			t.Error("expected error listing from a closed database")
		}
	})
}
