package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProfileLoaded MsgKind = iota
	MsgProfilePublished
	MsgProfileUpdated
	MsgProgressUpdate
	MsgClassified
)

type profileLoadedData struct {
	snapshot *tasks.ProfileSnapshot
	err      error
}

type profileUpdatedData struct {
	profile models.Profile
	err     error
}

type classifiedData struct {
	result *models.ClassificationResult
	err    error
}

// profileLoadedMsg is the constructor for [MsgProfileLoaded]
func profileLoadedMsg(snapshot *tasks.ProfileSnapshot, err error) Msg {
	return Msg{kind: MsgProfileLoaded, data: profileLoadedData{snapshot, err}}
}

// ProfilePublishedMsg is the constructor for [MsgProfilePublished].
//
// It is sent from the profile manager's observer so optimistic edits show up before the server answers.
func ProfilePublishedMsg(p models.Profile) Msg {
	return Msg{kind: MsgProfilePublished, data: p}
}

// profileUpdatedMsg is the constructor for [MsgProfileUpdated]
func profileUpdatedMsg(p models.Profile, err error) Msg {
	return Msg{kind: MsgProfileUpdated, data: profileUpdatedData{p, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// classifiedMsg is the constructor for [MsgClassified]
func classifiedMsg(result *models.ClassificationResult, err error) Msg {
	return Msg{kind: MsgClassified, data: classifiedData{result, err}}
}
