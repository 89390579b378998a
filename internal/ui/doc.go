// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI records a voice clip, submits it for emotion classification and shows the result:
//  1. [MoodListView] : Browse the mood history; delete entries or ask for music for one
//  2. [RecordingView] : Microphone is live until enter is pressed
//  3. [SubmittingView] : Transcoding, upload and classification progress
//  4. [ResultView] : Detected emotion and recommended tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the speech pipeline; profile edits are applied optimistically
// and arrive as [ProfilePublishedMsg] from the profile manager's observer.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, d, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
