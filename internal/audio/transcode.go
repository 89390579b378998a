package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/moodify/internal/shared"
)

const (
	// RecordingName is the file name given to transcoded recordings.
	RecordingName = "recording.wav"
	// RecordingType is the media type of transcoded recordings.
	RecordingType = "audio/wav"
)

// ChannelMode controls how multi-channel waveforms are written.
type ChannelMode string

const (
	// Interleave writes every channel, frame by frame.
	Interleave ChannelMode = "interleave"
	// Downmix averages all channels into one.
	Downmix ChannelMode = "downmix"
)

// ParseChannelMode validates a configured channel mode. Empty selects [Interleave].
func ParseChannelMode(s string) (ChannelMode, error) {
	switch m := ChannelMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Interleave, nil
	case Interleave, Downmix:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown channel mode %q", shared.ErrInvalidConfig, s)
	}
}

// File is an immutable named blob ready for upload.
type File struct {
	name     string
	mimeType string
	data     []byte
}

// NewFile copies data into a new [File].
func NewFile(name, mimeType string, data []byte) *File {
	return &File{name: name, mimeType: mimeType, data: bytes.Clone(data)}
}

func (f *File) Name() string     { return f.name }
func (f *File) MIMEType() string { return f.mimeType }
func (f *File) Size() int64      { return int64(len(f.data)) }

// Bytes returns a copy of the file contents.
func (f *File) Bytes() []byte { return bytes.Clone(f.data) }

// Reader returns a reader over the file contents.
func (f *File) Reader() io.Reader { return bytes.NewReader(f.data) }

// Save writes the file contents to path.
func (f *File) Save(path string) error {
	if err := os.WriteFile(path, f.data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Transcode decodes a compressed recording and re-encodes it as WAV.
//
// Empty input, an empty decoded waveform and decoder failures all yield
// [shared.ErrAudioDecode] and no file.
func Transcode(ctx context.Context, dec Decoder, data []byte, mode ChannelMode) (*File, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no audio captured", shared.ErrAudioDecode)
	}

	w, err := dec.Decode(ctx, data)
	if err != nil {
		if errors.Is(err, shared.ErrAudioDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAudioDecode, err)
	}
	if w == nil || w.Frames() == 0 {
		return nil, fmt.Errorf("%w: decoded recording is empty", shared.ErrAudioDecode)
	}

	wav, err := EncodeWAV(w, mode)
	if err != nil {
		return nil, err
	}
	return NewFile(RecordingName, RecordingType, wav), nil
}
