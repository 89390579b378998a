package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/audio"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/services"
	"github.com/desertthunder/moodify/internal/shared"
)

// Recorder captures one recording at a time. *audio.Recorder implements it.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (*audio.File, error)
	Close() error
}

// SubmissionRecorder stores a record of each classification request.
//
// repositories.SubmissionLog is the production implementation.
type SubmissionRecorder interface {
	RecordSubmission(kind models.SubmissionKind, filename, mimeType string, size int64, emotion string) error
}

// SpeechPipeline connects capture, transcoding and classification.
type SpeechPipeline struct {
	recorder Recorder
	backend  services.Backend
	history  SubmissionRecorder
	logger   *log.Logger
}

// NewSpeechPipeline creates a [SpeechPipeline]. recorder and history may be nil when only
// submitting existing files or when no history is kept.
func NewSpeechPipeline(recorder Recorder, backend services.Backend, history SubmissionRecorder, logger *log.Logger) *SpeechPipeline {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &SpeechPipeline{recorder: recorder, backend: backend, history: history, logger: logger}
}

// Record captures audio until stop is closed and returns the WAV file.
//
// If ctx ends first the session is abandoned and the device released.
func (p *SpeechPipeline) Record(ctx context.Context, stop <-chan struct{}, progress chan<- ProgressUpdate) (*audio.File, error) {
	if p.recorder == nil {
		return nil, fmt.Errorf("%w: no audio input configured", shared.ErrDeviceAccess)
	}

	if err := p.recorder.Start(ctx); err != nil {
		return nil, err
	}
	sendProgress(progress, recordingUpdate())

	select {
	case <-stop:
	case <-ctx.Done():
		if err := p.recorder.Close(); err != nil {
			p.logger.Warn("failed to release recorder", "error", err)
		}
		return nil, ctx.Err()
	}

	sendProgress(progress, transcodingUpdate())
	file, err := p.recorder.Stop(ctx)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, recordedUpdate(file))
	return file, nil
}

// Submit uploads an audio file for speech emotion classification.
func (p *SpeechPipeline) Submit(ctx context.Context, file *audio.File, progress chan<- ProgressUpdate) (*models.ClassificationResult, error) {
	sendProgress(progress, uploadingUpdate(models.SubmissionSpeech, file.Name()))
	result, err := p.backend.DetectSpeechEmotion(ctx, file)
	if err != nil {
		return nil, err
	}
	p.record(models.SubmissionSpeech, file.Name(), file.MIMEType(), file.Size(), result.Emotion)
	sendProgress(progress, classifiedUpdate(result))
	return result, nil
}

// SubmitImage uploads an image for facial emotion classification.
func (p *SpeechPipeline) SubmitImage(ctx context.Context, file *audio.File, progress chan<- ProgressUpdate) (*models.ClassificationResult, error) {
	sendProgress(progress, uploadingUpdate(models.SubmissionFacial, file.Name()))
	result, err := p.backend.DetectFacialEmotion(ctx, file)
	if err != nil {
		return nil, err
	}
	p.record(models.SubmissionFacial, file.Name(), file.MIMEType(), file.Size(), result.Emotion)
	sendProgress(progress, classifiedUpdate(result))
	return result, nil
}

// SubmitText classifies text.
func (p *SpeechPipeline) SubmitText(ctx context.Context, text string, progress chan<- ProgressUpdate) (*models.ClassificationResult, error) {
	sendProgress(progress, uploadingUpdate(models.SubmissionText, ""))
	result, err := p.backend.DetectTextEmotion(ctx, text)
	if err != nil {
		return nil, err
	}
	p.record(models.SubmissionText, "", "text/plain", int64(len(text)), result.Emotion)
	sendProgress(progress, classifiedUpdate(result))
	return result, nil
}

// RecordAndSubmit records until stop is closed and submits the result.
func (p *SpeechPipeline) RecordAndSubmit(ctx context.Context, stop <-chan struct{}, progress chan<- ProgressUpdate) (*models.ClassificationResult, error) {
	file, err := p.Record(ctx, stop, progress)
	if err != nil {
		return nil, err
	}
	return p.Submit(ctx, file, progress)
}

func (p *SpeechPipeline) record(kind models.SubmissionKind, name, mimeType string, size int64, emotion string) {
	if p.history == nil {
		return
	}
	if err := p.history.RecordSubmission(kind, name, mimeType, size, emotion); err != nil {
		p.logger.Warn("failed to log submission", "kind", kind, "error", err)
	}
}
