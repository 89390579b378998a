package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// Session is the authenticated user as stored after login or registration.
type Session struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
}

// Authenticated reports whether the session carries an access token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Access != ""
}

// MoodEntry is one detected emotion in the user's history.
//
// The backend stores emotion either as a plain label or as an object with a label field.
type MoodEntry struct {
	Emotion   string    `json:"emotion"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// UnmarshalJSON accepts a bare string, {"emotion": "..."} or {"emotion": {"label": "..."}}.
func (m *MoodEntry) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*m = MoodEntry{Emotion: label}
		return nil
	}

	var raw struct {
		Emotion   json.RawMessage `json:"emotion"`
		Timestamp string          `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	entry := MoodEntry{}
	if len(raw.Emotion) > 0 {
		if err := json.Unmarshal(raw.Emotion, &entry.Emotion); err != nil {
			var nested struct {
				Label   string `json:"label"`
				Emotion string `json:"emotion"`
			}
			if err := json.Unmarshal(raw.Emotion, &nested); err != nil {
				return err
			}
			entry.Emotion = nested.Label
			if entry.Emotion == "" {
				entry.Emotion = nested.Emotion
			}
		}
	}
	entry.Timestamp = parseTimestamp(raw.Timestamp)

	*m = entry
	return nil
}

// Label returns the emotion or "Unknown" when empty.
func (m MoodEntry) Label() string {
	if m.Emotion == "" {
		return "Unknown"
	}
	return m.Emotion
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Recommendation is a recommended track.
//
// Detection endpoints use name/artist while the profile uses track_name/artist_name; both are accepted.
type Recommendation struct {
	TrackID     string `json:"track_id,omitempty"`
	Name        string `json:"name,omitempty"`
	TrackName   string `json:"track_name,omitempty"`
	Artist      string `json:"artist,omitempty"`
	ArtistName  string `json:"artist_name,omitempty"`
	Album       string `json:"album,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	Emotion     string `json:"emotion,omitempty"`
}

// Title returns the track name from whichever field the backend populated.
func (r Recommendation) Title() string {
	if r.TrackName != "" {
		return r.TrackName
	}
	if r.Name != "" {
		return r.Name
	}
	return "Unknown Track"
}

// By returns the artist from whichever field the backend populated.
func (r Recommendation) By() string {
	if r.ArtistName != "" {
		return r.ArtistName
	}
	if r.Artist != "" {
		return r.Artist
	}
	return "Unknown Artist"
}

// Profile is the user profile returned by the backend and cached locally.
type Profile struct {
	Username              string           `json:"username"`
	Email                 string           `json:"email"`
	RecentMoods           []MoodEntry      `json:"recent_moods"`
	RecentRecommendations []Recommendation `json:"recent_recommendations"`
	TotalMoods            int              `json:"total_moods,omitempty"`
	TotalRecommendations  int              `json:"total_recommendations,omitempty"`
}

// Normalize replaces missing lists with empty ones.
func (p Profile) Normalize() Profile {
	if p.RecentMoods == nil {
		p.RecentMoods = []MoodEntry{}
	}
	if p.RecentRecommendations == nil {
		p.RecentRecommendations = []Recommendation{}
	}
	return p
}

// Clone returns a copy of p that shares no slices with it.
func (p Profile) Clone() Profile {
	p.RecentMoods = slices.Clone(p.RecentMoods)
	p.RecentRecommendations = slices.Clone(p.RecentRecommendations)
	return p.Normalize()
}

// WithoutMood returns a copy of p with the mood at index removed.
func (p Profile) WithoutMood(index int) Profile {
	c := p.Clone()
	c.RecentMoods = slices.Delete(c.RecentMoods, index, index+1)
	return c
}

// WithoutRecommendation returns a copy of p with the recommendation at index removed.
func (p Profile) WithoutRecommendation(index int) Profile {
	c := p.Clone()
	c.RecentRecommendations = slices.Delete(c.RecentRecommendations, index, index+1)
	return c
}

// ProfileUpdate is the body sent to the profile update endpoint.
//
// Only the list being edited is set; a nil list is omitted so the server keeps it.
type ProfileUpdate struct {
	Username              string            `json:"username"`
	Email                 string            `json:"email"`
	RecentMoods           *[]MoodEntry      `json:"recent_moods,omitempty"`
	RecentRecommendations *[]Recommendation `json:"recent_recommendations,omitempty"`
}

// ClassificationResult is the response of the text, speech, facial and recommendation endpoints.
type ClassificationResult struct {
	Emotion         string           `json:"emotion"`
	Message         string           `json:"message,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	Raw             json.RawMessage  `json:"-"`
}

// NormalizeEmotion lowercases and trims a mood label the way the recommendation endpoint expects.
func NormalizeEmotion(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
