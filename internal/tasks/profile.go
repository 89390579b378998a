package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/services"
	"github.com/desertthunder/moodify/internal/shared"
)

// ProfileStore persists the session and the last known profile.
//
// repositories.CacheRepository is the production implementation.
type ProfileStore interface {
	Profile() (*models.Profile, error)
	SaveProfile(p models.Profile) error
	ClearSession() error
}

// ProfileSnapshot is the result of [ProfileManager.Load].
type ProfileSnapshot struct {
	Profile models.Profile
	Stale   bool  // served from the cache because the fetch failed
	Cause   error // the fetch error when Stale
}

// ProfileManager keeps the user's profile in sync with the backend and the local cache.
//
// Deletions are applied optimistically through a [Speculative] and rolled back if the server rejects them.
type ProfileManager struct {
	backend services.Backend
	store   ProfileStore
	state   *Speculative[models.Profile]
	logger  *log.Logger
}

// NewProfileManager creates a [ProfileManager]. observe, if set, sees every published profile.
func NewProfileManager(backend services.Backend, store ProfileStore, logger *log.Logger, observe Observer[models.Profile]) *ProfileManager {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &ProfileManager{
		backend: backend,
		store:   store,
		state:   NewSpeculative(models.Profile{}.Normalize(), observe),
		logger:  logger,
	}
}

// Current returns the published profile.
func (m *ProfileManager) Current() models.Profile {
	return m.state.Value()
}

// Load fetches the profile and caches it.
//
// A 401 clears the stored session and returns [shared.ErrNotAuthenticated]. Other failures
// fall back to the cached profile, reported as stale; without a cache the error is returned.
func (m *ProfileManager) Load(ctx context.Context, progress chan<- ProgressUpdate) (*ProfileSnapshot, error) {
	p, err := m.backend.Profile(ctx)
	if err == nil {
		fresh := p.Normalize()
		if err := m.store.SaveProfile(fresh); err != nil {
			m.logger.Warn("failed to cache profile", "error", err)
		}
		m.state.Set(fresh)
		sendProgress(progress, loadProfileUpdate(false))
		return &ProfileSnapshot{Profile: fresh}, nil
	}

	if errors.Is(err, shared.ErrNotAuthenticated) {
		m.clearSession()
		return nil, err
	}

	cached, cerr := m.store.Profile()
	if cerr != nil {
		return nil, err
	}

	m.logger.Warn("using cached profile", "error", err)
	m.state.Set(*cached)
	sendProgress(progress, loadProfileUpdate(true))
	return &ProfileSnapshot{Profile: *cached, Stale: true, Cause: err}, nil
}

// DeleteMood removes the mood at index and persists the shortened history.
func (m *ProfileManager) DeleteMood(ctx context.Context, index int, progress chan<- ProgressUpdate) (models.Profile, error) {
	return m.remove(ctx, index, progress, profileList{
		name:   "mood",
		length: func(p models.Profile) int { return len(p.RecentMoods) },
		remove: models.Profile.WithoutMood,
		update: func(p models.Profile) models.ProfileUpdate {
			moods := p.RecentMoods
			return models.ProfileUpdate{Username: p.Username, Email: p.Email, RecentMoods: &moods}
		},
		merge: func(next, resp models.Profile) models.Profile {
			if resp.RecentMoods != nil {
				next.RecentMoods = resp.RecentMoods
			}
			return next
		},
	})
}

// DeleteRecommendation removes the recommendation at index and persists the shortened list.
func (m *ProfileManager) DeleteRecommendation(ctx context.Context, index int, progress chan<- ProgressUpdate) (models.Profile, error) {
	return m.remove(ctx, index, progress, profileList{
		name:   "recommendation",
		length: func(p models.Profile) int { return len(p.RecentRecommendations) },
		remove: models.Profile.WithoutRecommendation,
		update: func(p models.Profile) models.ProfileUpdate {
			recs := p.RecentRecommendations
			return models.ProfileUpdate{Username: p.Username, Email: p.Email, RecentRecommendations: &recs}
		},
		merge: func(next, resp models.Profile) models.Profile {
			if resp.RecentRecommendations != nil {
				next.RecentRecommendations = resp.RecentRecommendations
			}
			return next
		},
	})
}

// RecommendForMood requests tracks for a mood from the history.
func (m *ProfileManager) RecommendForMood(ctx context.Context, mood string, progress chan<- ProgressUpdate) (*models.ClassificationResult, error) {
	sendProgress(progress, ProgressUpdate{Phase: Recommend, Step: 1, Total: 1, Message: fmt.Sprintf("Finding music for %s...", mood)})
	return m.backend.Recommend(ctx, mood)
}

// profileList describes one editable list of the profile.
type profileList struct {
	name   string
	length func(models.Profile) int
	remove func(models.Profile, int) models.Profile
	update func(models.Profile) models.ProfileUpdate
	merge  func(next, resp models.Profile) models.Profile
}

func (m *ProfileManager) remove(ctx context.Context, index int, progress chan<- ProgressUpdate, l profileList) (models.Profile, error) {
	transition := func(p models.Profile) (models.Profile, error) {
		if n := l.length(p); index < 0 || index >= n {
			return p, fmt.Errorf("%w: %s index %d out of range [0, %d)", shared.ErrInvalidArgument, l.name, index, n)
		}
		return l.remove(p, index), nil
	}

	commit := func(ctx context.Context, next models.Profile) (models.Profile, error) {
		resp, err := m.backend.UpdateProfile(ctx, l.update(next))
		if err != nil {
			return next, err
		}
		return l.merge(next, *resp), nil
	}

	result, err := m.state.Apply(ctx, transition, commit)
	if errors.Is(err, shared.ErrInvalidArgument) {
		return result, err
	}

	if cerr := m.store.SaveProfile(result); cerr != nil {
		m.logger.Warn("failed to cache profile", "error", cerr)
	}
	sendProgress(progress, updateProfileUpdate(result, err != nil))

	if err != nil {
		m.logger.Error("profile update rolled back", "list", l.name, "index", index, "error", err)
		if errors.Is(err, shared.ErrNotAuthenticated) {
			m.clearSession()
		}
		return result, err
	}
	return result, nil
}

func (m *ProfileManager) clearSession() {
	if err := m.store.ClearSession(); err != nil {
		m.logger.Warn("failed to clear session", "error", err)
	}
}
