package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/moodify/internal/models"
)

var (
	_ list.Item = moodItem{}
	_ list.Item = recommendationItem{}
)

// moodItem wraps [models.MoodEntry] to implement [list.Item].
type moodItem struct {
	mood models.MoodEntry
}

func (i moodItem) FilterValue() string { return i.mood.Emotion }
func (i moodItem) Title() string       { return i.mood.Label() }
func (i moodItem) Description() string {
	if i.mood.Timestamp.IsZero() {
		return "unknown time"
	}
	return i.mood.Timestamp.Local().Format("Mon Jan 2 15:04")
}

// recommendationItem wraps [models.Recommendation] to implement [list.Item].
type recommendationItem struct {
	rec models.Recommendation
}

func (i recommendationItem) FilterValue() string { return i.rec.Title() }
func (i recommendationItem) Title() string       { return i.rec.Title() }
func (i recommendationItem) Description() string {
	desc := i.rec.By()
	if i.rec.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.rec.Album)
	}
	return desc
}

func moodItems(moods []models.MoodEntry) []list.Item {
	items := make([]list.Item, len(moods))
	for i, m := range moods {
		items[i] = moodItem{mood: m}
	}
	return items
}

func recommendationItems(recs []models.Recommendation) []list.Item {
	items := make([]list.Item, len(recs))
	for i, r := range recs {
		items[i] = recommendationItem{rec: r}
	}
	return items
}
