package tasks

import (
	"fmt"

	"github.com/desertthunder/moodify/internal/audio"
	"github.com/desertthunder/moodify/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Recording Phase = iota
	Transcoding
	Uploading
	Classified
	LoadProfile
	UpdateProfile
	Recommend
)

func (p Phase) String() string {
	switch p {
	case Recording:
		return "recording"
	case Transcoding:
		return "transcoding"
	case Uploading:
		return "uploading"
	case Classified:
		return "classified"
	case LoadProfile:
		return "load_profile"
	case UpdateProfile:
		return "update_profile"
	case Recommend:
		return "recommend"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func recordingUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Recording, Step: 1, Total: 3, Message: "Recording... press enter to stop"}
}

func transcodingUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Transcoding, Step: 2, Total: 3, Message: "Converting recording to WAV..."}
}

func recordedUpdate(f *audio.File) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Transcoding,
		Step:    3,
		Total:   3,
		Message: fmt.Sprintf("Recorded %s (%d bytes)", f.Name(), f.Size()),
		Data:    f,
	}
}

func uploadingUpdate(kind models.SubmissionKind, name string) ProgressUpdate {
	msg := fmt.Sprintf("Analyzing %s...", kind)
	if name != "" {
		msg = fmt.Sprintf("Uploading %s for %s analysis...", name, kind)
	}
	return ProgressUpdate{Phase: Uploading, Step: 1, Total: 2, Message: msg}
}

func classifiedUpdate(result *models.ClassificationResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Classified,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Detected emotion: %s", result.Emotion),
		Data:    result,
	}
}

func loadProfileUpdate(stale bool) ProgressUpdate {
	msg := "Profile loaded"
	if stale {
		msg = "Showing cached profile"
	}
	return ProgressUpdate{Phase: LoadProfile, Step: 1, Total: 1, Message: msg}
}

func updateProfileUpdate(p models.Profile, rolledBack bool) ProgressUpdate {
	msg := "Profile updated"
	if rolledBack {
		msg = "Update failed, changes reverted"
	}
	return ProgressUpdate{Phase: UpdateProfile, Step: 1, Total: 1, Message: msg, Data: p}
}
