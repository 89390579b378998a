// package services defines the Backend interface for the Moodify API and its HTTP client
package services

import (
	"context"

	"github.com/desertthunder/moodify/internal/audio"
	"github.com/desertthunder/moodify/internal/models"
)

// Backend is the set of Moodify API operations used by the client.
type Backend interface {
	// Register creates an account and returns the authenticated session.
	Register(ctx context.Context, username, password, email string) (*models.Session, error)

	// Login exchanges credentials for a session.
	Login(ctx context.Context, username, password string) (*models.Session, error)

	// Profile fetches the authenticated user's profile.
	Profile(ctx context.Context) (*models.Profile, error)

	// UpdateProfile replaces the lists present in update and returns the stored profile.
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.Profile, error)

	// DetectTextEmotion classifies free text.
	DetectTextEmotion(ctx context.Context, text string) (*models.ClassificationResult, error)

	// DetectSpeechEmotion uploads an audio file for classification.
	DetectSpeechEmotion(ctx context.Context, file *audio.File) (*models.ClassificationResult, error)

	// DetectFacialEmotion uploads an image for classification.
	DetectFacialEmotion(ctx context.Context, file *audio.File) (*models.ClassificationResult, error)

	// Recommend returns tracks for a mood label.
	Recommend(ctx context.Context, emotion string) (*models.ClassificationResult, error)
}
