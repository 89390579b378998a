package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/moodify/internal/audio"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
)

type mockBackend struct {
	profile       *models.Profile
	profileErr    error
	updateResp    *models.Profile
	updateErr     error
	updates       []models.ProfileUpdate
	result        *models.ClassificationResult
	detectErr     error
	recommendMood string
}

func (m *mockBackend) Register(ctx context.Context, username, password, email string) (*models.Session, error) {
	return &models.Session{Username: username, Email: email, Access: "a"}, nil
}

func (m *mockBackend) Login(ctx context.Context, username, password string) (*models.Session, error) {
	return &models.Session{Username: username, Access: "a"}, nil
}

func (m *mockBackend) Profile(ctx context.Context) (*models.Profile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

func (m *mockBackend) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.Profile, error) {
	m.updates = append(m.updates, update)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if m.updateResp != nil {
		return m.updateResp, nil
	}
	return &models.Profile{Username: update.Username}, nil
}

func (m *mockBackend) DetectTextEmotion(ctx context.Context, text string) (*models.ClassificationResult, error) {
	return m.detect()
}

func (m *mockBackend) DetectSpeechEmotion(ctx context.Context, file *audio.File) (*models.ClassificationResult, error) {
	return m.detect()
}

func (m *mockBackend) DetectFacialEmotion(ctx context.Context, file *audio.File) (*models.ClassificationResult, error) {
	return m.detect()
}

func (m *mockBackend) Recommend(ctx context.Context, emotion string) (*models.ClassificationResult, error) {
	m.recommendMood = emotion
	return m.detect()
}

func (m *mockBackend) detect() (*models.ClassificationResult, error) {
	if m.detectErr != nil {
		return nil, m.detectErr
	}
	return m.result, nil
}

type mockStore struct {
	cached         *models.Profile
	saved          []models.Profile
	sessionCleared bool
}

func (s *mockStore) Profile() (*models.Profile, error) {
	if s.cached == nil {
		return nil, shared.ErrCacheMiss
	}
	return s.cached, nil
}

func (s *mockStore) SaveProfile(p models.Profile) error {
	s.saved = append(s.saved, p)
	c := p.Clone()
	s.cached = &c
	return nil
}

func (s *mockStore) ClearSession() error {
	s.sessionCleared = true
	return nil
}

func (s *mockStore) last() models.Profile {
	return s.saved[len(s.saved)-1]
}

type mockRecorder struct {
	startErr error
	stopErr  error
	file     *audio.File
	closed   bool
	stopped  bool
}

func (r *mockRecorder) Start(ctx context.Context) error { return r.startErr }
func (r *mockRecorder) Close() error                    { r.closed = true; return nil }
func (r *mockRecorder) Stop(ctx context.Context) (*audio.File, error) {
	r.stopped = true
	if r.stopErr != nil {
		return nil, r.stopErr
	}
	return r.file, nil
}

type mockHistory struct {
	kinds    []models.SubmissionKind
	emotions []string
}

func (h *mockHistory) RecordSubmission(kind models.SubmissionKind, filename, mimeType string, size int64, emotion string) error {
	h.kinds = append(h.kinds, kind)
	h.emotions = append(h.emotions, emotion)
	return nil
}

func moods(labels ...string) []models.MoodEntry {
	out := make([]models.MoodEntry, len(labels))
	for i, l := range labels {
		out[i] = models.MoodEntry{Emotion: l}
	}
	return out
}

func labels(p models.Profile) []string {
	out := make([]string, len(p.RecentMoods))
	for i, m := range p.RecentMoods {
		out[i] = m.Emotion
	}
	return out
}

func TestSpeculative(t *testing.T) {
	ctx := context.Background()
	inc := func(v int) (int, error) { return v + 1, nil }

	t.Run("Commit Success", func(t *testing.T) {
		var seen []int
		s := NewSpeculative(1, func(v int) { seen = append(seen, v) })

		got, err := s.Apply(ctx, inc, func(ctx context.Context, v int) (int, error) { return v * 10, nil })
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if got != 20 || s.Value() != 20 {
			t.Errorf("expected committed value 20, got %d (published %d)", got, s.Value())
		}
		if fmt.Sprint(seen) != "[2 20]" {
			t.Errorf("expected publishes [2 20], got %v", seen)
		}
	})

	t.Run("Commit Failure Restores Snapshot", func(t *testing.T) {
		var seen []int
		s := NewSpeculative(1, func(v int) { seen = append(seen, v) })
		boom := errors.New("boom")

		got, err := s.Apply(ctx, inc, func(ctx context.Context, v int) (int, error) {
			if s.Value() != 2 {
				t.Errorf("optimistic value should be visible during commit, got %d", s.Value())
			}
			return 0, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected commit error, got %v", err)
		}
		if got != 1 || s.Value() != 1 {
			t.Errorf("expected snapshot 1 restored, got %d (published %d)", got, s.Value())
		}
		if fmt.Sprint(seen) != "[2 1]" {
			t.Errorf("expected publishes [2 1], got %v", seen)
		}
	})

	t.Run("Transition Failure Publishes Nothing", func(t *testing.T) {
		calls := 0
		s := NewSpeculative(1, func(int) { calls++ })

		_, err := s.Apply(ctx, func(int) (int, error) { return 0, shared.ErrInvalidArgument }, func(ctx context.Context, v int) (int, error) {
			t.Error("commit should not run")
			return v, nil
		})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if calls != 0 || s.Value() != 1 {
			t.Error("nothing should be published")
		}
	})

	t.Run("Snapshot Is Not Mutated", func(t *testing.T) {
		original := models.Profile{RecentMoods: moods("a", "b", "c")}
		s := NewSpeculative(original, nil)

		_, err := s.Apply(ctx, func(p models.Profile) (models.Profile, error) {
			return p.WithoutMood(0), nil
		}, func(ctx context.Context, p models.Profile) (models.Profile, error) {
			return p, errors.New("rejected")
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if fmt.Sprint(labels(s.Value())) != "[a b c]" {
			t.Errorf("rolled back profile changed: %v", labels(s.Value()))
		}
	})
}

func TestProfileManagerLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("Fresh Profile Is Cached", func(t *testing.T) {
		backend := &mockBackend{profile: &models.Profile{Username: "sam", RecentMoods: moods("happy")}}
		store := &mockStore{}
		m := NewProfileManager(backend, store, nil, nil)

		snap, err := m.Load(ctx, nil)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if snap.Stale {
			t.Error("fresh profile should not be stale")
		}
		if len(store.saved) != 1 || store.last().Username != "sam" {
			t.Errorf("expected profile to be cached, got %+v", store.saved)
		}
		if m.Current().RecentRecommendations == nil {
			t.Error("loaded profile should be normalized")
		}
	})

	t.Run("Unauthorized Clears Session", func(t *testing.T) {
		backend := &mockBackend{profileErr: fmt.Errorf("%w: token expired", shared.ErrNotAuthenticated)}
		store := &mockStore{cached: &models.Profile{Username: "old"}}
		m := NewProfileManager(backend, store, nil, nil)

		if _, err := m.Load(ctx, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if !store.sessionCleared {
			t.Error("session should be cleared on 401")
		}
	})

	t.Run("Falls Back To Cache", func(t *testing.T) {
		backend := &mockBackend{profileErr: fmt.Errorf("%w: connection refused", shared.ErrAPIRequest)}
		store := &mockStore{cached: &models.Profile{Username: "cached", RecentMoods: moods("calm")}}
		m := NewProfileManager(backend, store, nil, nil)

		progress := make(chan ProgressUpdate, 4)
		snap, err := m.Load(ctx, progress)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !snap.Stale || !errors.Is(snap.Cause, shared.ErrAPIRequest) {
			t.Errorf("expected stale snapshot with cause, got %+v", snap)
		}
		if snap.Profile.Username != "cached" || m.Current().Username != "cached" {
			t.Errorf("expected cached profile, got %+v", snap.Profile)
		}
		if update := <-progress; update.Phase != LoadProfile {
			t.Errorf("expected load profile update, got %v", update.Phase)
		}
	})

	t.Run("No Cache", func(t *testing.T) {
		backend := &mockBackend{profileErr: shared.ErrAPIRequest}
		m := NewProfileManager(backend, &mockStore{}, nil, nil)

		if _, err := m.Load(ctx, nil); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestProfileManagerDelete(t *testing.T) {
	ctx := context.Background()

	load := func(t *testing.T, backend *mockBackend, store *mockStore, observe Observer[models.Profile]) *ProfileManager {
		t.Helper()
		m := NewProfileManager(backend, store, nil, observe)
		if _, err := m.Load(ctx, nil); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		store.saved = nil
		return m
	}

	t.Run("Server List Wins", func(t *testing.T) {
		backend := &mockBackend{
			profile:    &models.Profile{Username: "sam", Email: "s@x", RecentMoods: moods("a", "b", "c")},
			updateResp: &models.Profile{RecentMoods: moods("a", "c", "server")},
		}
		store := &mockStore{}
		m := load(t, backend, store, nil)

		p, err := m.DeleteMood(ctx, 1, nil)
		if err != nil {
			t.Fatalf("DeleteMood() error = %v", err)
		}

		sent := backend.updates[0]
		if sent.Username != "sam" || sent.Email != "s@x" || sent.RecentMoods == nil || len(*sent.RecentMoods) != 2 {
			t.Errorf("unexpected update %+v", sent)
		}
		if sent.RecentRecommendations != nil {
			t.Error("only the edited list should be sent")
		}
		if fmt.Sprint(labels(p)) != "[a c server]" {
			t.Errorf("expected server list, got %v", labels(p))
		}
		if fmt.Sprint(labels(store.last())) != "[a c server]" {
			t.Errorf("cache should hold committed profile, got %v", labels(store.last()))
		}
	})

	t.Run("Local List Kept When Response Omits It", func(t *testing.T) {
		backend := &mockBackend{profile: &models.Profile{RecentMoods: moods("a", "b")}}
		m := load(t, backend, &mockStore{}, nil)

		p, err := m.DeleteMood(ctx, 0, nil)
		if err != nil {
			t.Fatalf("DeleteMood() error = %v", err)
		}
		if fmt.Sprint(labels(p)) != "[b]" {
			t.Errorf("expected locally updated list, got %v", labels(p))
		}
	})

	t.Run("Rollback On Failure", func(t *testing.T) {
		backend := &mockBackend{
			profile:   &models.Profile{RecentMoods: moods("a", "b", "c")},
			updateErr: fmt.Errorf("%w: status 500", shared.ErrAPIRequest),
		}
		store := &mockStore{}
		var seen [][]string
		m := load(t, backend, store, func(p models.Profile) { seen = append(seen, labels(p)) })
		seen = nil

		progress := make(chan ProgressUpdate, 4)
		p, err := m.DeleteMood(ctx, 2, progress)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if fmt.Sprint(labels(p)) != "[a b c]" || fmt.Sprint(labels(m.Current())) != "[a b c]" {
			t.Errorf("expected original list restored, got %v", labels(m.Current()))
		}
		if fmt.Sprint(seen) != "[[a b] [a b c]]" {
			t.Errorf("expected optimistic then restored publish, got %v", seen)
		}
		if len(store.saved) != 1 || fmt.Sprint(labels(store.last())) != "[a b c]" {
			t.Errorf("cache should hold restored profile, got %+v", store.saved)
		}
		if update := <-progress; update.Phase != UpdateProfile {
			t.Errorf("expected update profile phase, got %v", update.Phase)
		}
	})

	t.Run("Out Of Range Index", func(t *testing.T) {
		backend := &mockBackend{profile: &models.Profile{RecentMoods: moods("a")}}
		store := &mockStore{}
		m := load(t, backend, store, nil)

		for _, i := range []int{-1, 1, 5} {
			if _, err := m.DeleteMood(ctx, i, nil); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("index %d: expected ErrInvalidArgument, got %v", i, err)
			}
		}
		if len(backend.updates) != 0 {
			t.Error("no request should be made for an invalid index")
		}
		if len(store.saved) != 0 {
			t.Error("cache should not be written for an invalid index")
		}
	})

	t.Run("Delete Recommendation", func(t *testing.T) {
		backend := &mockBackend{profile: &models.Profile{RecentRecommendations: []models.Recommendation{{Name: "x"}, {Name: "y"}}}}
		m := load(t, backend, &mockStore{}, nil)

		p, err := m.DeleteRecommendation(ctx, 0, nil)
		if err != nil {
			t.Fatalf("DeleteRecommendation() error = %v", err)
		}
		if len(p.RecentRecommendations) != 1 || p.RecentRecommendations[0].Name != "y" {
			t.Errorf("unexpected recommendations %+v", p.RecentRecommendations)
		}
		sent := backend.updates[0]
		if sent.RecentRecommendations == nil || sent.RecentMoods != nil {
			t.Errorf("unexpected update %+v", sent)
		}
	})

	t.Run("Unauthorized Update Clears Session", func(t *testing.T) {
		backend := &mockBackend{
			profile:   &models.Profile{RecentMoods: moods("a")},
			updateErr: shared.ErrNotAuthenticated,
		}
		store := &mockStore{}
		m := load(t, backend, store, nil)

		if _, err := m.DeleteMood(ctx, 0, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if !store.sessionCleared {
			t.Error("session should be cleared")
		}
	})

	t.Run("Recommend For Mood", func(t *testing.T) {
		backend := &mockBackend{result: &models.ClassificationResult{Emotion: "sad"}}
		m := NewProfileManager(backend, &mockStore{}, nil, nil)

		if _, err := m.RecommendForMood(ctx, "Sad", nil); err != nil {
			t.Fatalf("RecommendForMood() error = %v", err)
		}
		if backend.recommendMood != "Sad" {
			t.Errorf("expected mood forwarded, got %q", backend.recommendMood)
		}
	})
}

func TestSpeechPipeline(t *testing.T) {
	ctx := context.Background()
	wav := audio.NewFile("recording.wav", "audio/wav", []byte("RIFF"))

	t.Run("Record Until Stopped", func(t *testing.T) {
		rec := &mockRecorder{file: wav}
		p := NewSpeechPipeline(rec, &mockBackend{}, nil, nil)

		stop := make(chan struct{})
		close(stop)

		progress := make(chan ProgressUpdate, 8)
		f, err := p.Record(ctx, stop, progress)
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if f != wav || !rec.stopped {
			t.Error("expected recorder to be stopped and file returned")
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if fmt.Sprint(phases) != fmt.Sprint([]Phase{Recording, Transcoding, Transcoding}) {
			t.Errorf("unexpected phases %v", phases)
		}
	})

	t.Run("Context Cancelled Releases Recorder", func(t *testing.T) {
		rec := &mockRecorder{file: wav}
		p := NewSpeechPipeline(rec, &mockBackend{}, nil, nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := p.Record(cctx, make(chan struct{}), nil); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !rec.closed || rec.stopped {
			t.Error("recorder should be closed, not stopped")
		}
	})

	t.Run("Start Failure", func(t *testing.T) {
		rec := &mockRecorder{startErr: shared.ErrDeviceAccess}
		p := NewSpeechPipeline(rec, &mockBackend{}, nil, nil)

		if _, err := p.Record(ctx, nil, nil); !errors.Is(err, shared.ErrDeviceAccess) {
			t.Errorf("expected ErrDeviceAccess, got %v", err)
		}
	})

	t.Run("No Recorder", func(t *testing.T) {
		p := NewSpeechPipeline(nil, &mockBackend{}, nil, nil)
		if _, err := p.Record(ctx, nil, nil); !errors.Is(err, shared.ErrDeviceAccess) {
			t.Errorf("expected ErrDeviceAccess, got %v", err)
		}
	})

	t.Run("Submit Logs Submission", func(t *testing.T) {
		history := &mockHistory{}
		backend := &mockBackend{result: &models.ClassificationResult{Emotion: "happy"}}
		p := NewSpeechPipeline(nil, backend, history, nil)

		res, err := p.Submit(ctx, wav, nil)
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if res.Emotion != "happy" {
			t.Errorf("unexpected emotion %s", res.Emotion)
		}
		if len(history.kinds) != 1 || history.kinds[0] != models.SubmissionSpeech || history.emotions[0] != "happy" {
			t.Errorf("unexpected history %+v", history)
		}
	})

	t.Run("Failed Submit Is Not Logged", func(t *testing.T) {
		history := &mockHistory{}
		backend := &mockBackend{detectErr: shared.ErrUpload}
		p := NewSpeechPipeline(nil, backend, history, nil)

		if _, err := p.Submit(ctx, wav, nil); !errors.Is(err, shared.ErrUpload) {
			t.Fatalf("expected ErrUpload, got %v", err)
		}
		if len(history.kinds) != 0 {
			t.Error("failed submissions should not be logged")
		}
	})

	t.Run("Text And Image", func(t *testing.T) {
		history := &mockHistory{}
		backend := &mockBackend{result: &models.ClassificationResult{Emotion: "calm"}}
		p := NewSpeechPipeline(nil, backend, history, nil)

		if _, err := p.SubmitText(ctx, "fine", nil); err != nil {
			t.Fatalf("SubmitText() error = %v", err)
		}
		if _, err := p.SubmitImage(ctx, audio.NewFile("me.png", "image/png", []byte{1}), nil); err != nil {
			t.Fatalf("SubmitImage() error = %v", err)
		}
		if fmt.Sprint(history.kinds) != "[text facial]" {
			t.Errorf("unexpected kinds %v", history.kinds)
		}
	})

	t.Run("Record And Submit", func(t *testing.T) {
		backend := &mockBackend{result: &models.ClassificationResult{Emotion: "joy"}}
		p := NewSpeechPipeline(&mockRecorder{file: wav}, backend, nil, nil)

		stop := make(chan struct{})
		close(stop)
		res, err := p.RecordAndSubmit(ctx, stop, nil)
		if err != nil {
			t.Fatalf("RecordAndSubmit() error = %v", err)
		}
		if res.Emotion != "joy" {
			t.Errorf("unexpected emotion %s", res.Emotion)
		}
	})
}
