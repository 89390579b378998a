package audio

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/shared"
)

// Constraints describe the input stream requested from an [AudioInputSource].
type Constraints struct {
	SampleRate       int
	Channels         int
	BitDepth         int
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// DefaultConstraints returns mono 16 kHz 16-bit input with voice processing enabled.
func DefaultConstraints() Constraints {
	return Constraints{
		SampleRate:       16000,
		Channels:         1,
		BitDepth:         16,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

// InputStream yields signed 16-bit little-endian interleaved PCM.
//
// Close releases the underlying device; Read returns [io.EOF] afterwards.
type InputStream interface {
	io.Reader
	io.Closer
}

// AudioInputSource acquires an input device.
type AudioInputSource interface {
	Open(ctx context.Context, c Constraints) (InputStream, error)
}

// EncoderConfig selects the compressed container and bitrate.
type EncoderConfig struct {
	MIMEType   string
	Bitrate    int
	SampleRate int
	Channels   int
}

// DefaultEncoderConfig returns WebM/Opus at 16 kbit/s for mono 16 kHz input.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{MIMEType: "audio/webm;codecs=opus", Bitrate: 16000, SampleRate: 16000, Channels: 1}
}

// ChunkFunc receives encoded data in production order.
type ChunkFunc func(chunk []byte)

// StreamingEncoder compresses PCM read from src, delivering chunks through onChunk.
//
// Finalize blocks until src is exhausted and every chunk has been delivered.
type StreamingEncoder interface {
	Start(ctx context.Context, src io.Reader, cfg EncoderConfig, onChunk ChunkFunc) error
	Finalize() error
}

// Decoder turns a compressed blob into a [Waveform].
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*Waveform, error)
}

// Waveform is decoded audio: one float sample slice per channel.
type Waveform struct {
	SampleRate int
	Channels   [][]float32
}

// NumChannels returns the channel count.
func (w *Waveform) NumChannels() int { return len(w.Channels) }

// Frames returns the number of samples per channel.
func (w *Waveform) Frames() int {
	if len(w.Channels) == 0 {
		return 0
	}
	return len(w.Channels[0])
}

// RecorderOpts configures a [Recorder].
type RecorderOpts struct {
	Source      AudioInputSource
	Encoder     StreamingEncoder
	Decoder     Decoder
	Constraints Constraints
	Encoding    EncoderConfig
	Mode        ChannelMode
	Logger      *log.Logger
}

// Recorder manages a single recording session.
//
// The chunk list is appended from the encoder goroutine and only read after
// the encoder has been finalized.
type Recorder struct {
	source      AudioInputSource
	encoder     StreamingEncoder
	decoder     Decoder
	constraints Constraints
	encoding    EncoderConfig
	mode        ChannelMode
	logger      *log.Logger

	mu        sync.Mutex
	recording bool
	starting  bool
	cancelled bool // Close ran while Start was opening the device
	stream    InputStream
	chunks    [][]byte
	output    *File
}

// NewRecorder creates a [Recorder]. Zero-valued constraints and encoder settings take their defaults.
func NewRecorder(opts RecorderOpts) *Recorder {
	if opts.Constraints == (Constraints{}) {
		opts.Constraints = DefaultConstraints()
	}
	if opts.Encoding == (EncoderConfig{}) {
		opts.Encoding = DefaultEncoderConfig()
	}
	if opts.Encoding.SampleRate == 0 {
		opts.Encoding.SampleRate = opts.Constraints.SampleRate
	}
	if opts.Encoding.Channels == 0 {
		opts.Encoding.Channels = opts.Constraints.Channels
	}
	if opts.Mode == "" {
		opts.Mode = Interleave
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Recorder{
		source:      opts.Source,
		encoder:     opts.Encoder,
		decoder:     opts.Decoder,
		constraints: opts.Constraints,
		encoding:    opts.Encoding,
		mode:        opts.Mode,
		logger:      opts.Logger,
	}
}

// Start opens the input device and begins encoding. Any previous session is discarded.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.recording || r.starting {
		r.mu.Unlock()
		return shared.ErrRecordingActive
	}
	r.starting = true
	r.cancelled = false
	r.chunks = nil
	r.output = nil
	r.mu.Unlock()

	stream, err := r.open(ctx)

	r.mu.Lock()
	r.starting = false
	cancelled := r.cancelled
	r.cancelled = false
	if err == nil && !cancelled {
		r.stream = stream
		r.recording = true
	}
	r.mu.Unlock()

	if err != nil {
		return err
	}
	if cancelled {
		r.release(stream)
		r.mu.Lock()
		r.chunks = nil
		r.mu.Unlock()
		return fmt.Errorf("%w: recorder closed while starting", shared.ErrNotRecording)
	}

	r.logger.Debug("recording started", "rate", r.constraints.SampleRate, "channels", r.constraints.Channels, "mime", r.encoding.MIMEType)
	return nil
}

func (r *Recorder) open(ctx context.Context) (InputStream, error) {
	stream, err := r.source.Open(ctx, r.constraints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDeviceAccess, err)
	}

	if err := r.encoder.Start(ctx, stream, r.encoding, r.appendChunk); err != nil {
		if cerr := stream.Close(); cerr != nil {
			r.logger.Warn("failed to release input device", "error", cerr)
		}
		return nil, fmt.Errorf("failed to start encoder: %w", err)
	}
	return stream, nil
}

func (r *Recorder) appendChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)

	r.mu.Lock()
	r.chunks = append(r.chunks, c)
	r.mu.Unlock()
}

// Stop ends the session and returns the transcoded WAV file.
//
// The input device is released before the encoder is flushed, whatever the outcome.
func (r *Recorder) Stop(ctx context.Context) (*File, error) {
	r.mu.Lock()
	if !r.recording || r.stream == nil {
		r.mu.Unlock()
		return nil, shared.ErrNotRecording
	}
	stream := r.stream
	r.stream = nil
	r.recording = false
	r.mu.Unlock()

	if err := stream.Close(); err != nil {
		r.logger.Warn("failed to release input device", "error", err)
	}

	if err := r.encoder.Finalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAudioDecode, err)
	}

	r.mu.Lock()
	blob := concat(r.chunks)
	r.mu.Unlock()

	r.logger.Debug("recording stopped", "bytes", len(blob))

	file, err := Transcode(ctx, r.decoder, blob, r.mode)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.output = file
	r.mu.Unlock()
	return file, nil
}

// Recording reports whether a session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Chunks returns the number of encoded chunks captured in the current session.
func (r *Recorder) Chunks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

// Output returns the file produced by the last successful [Recorder.Stop], or nil.
func (r *Recorder) Output() *File {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output
}

// Close abandons any active session and releases the device.
//
// A Start still opening the device releases it and fails instead of recording.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.starting {
		r.cancelled = true
	}
	stream := r.stream
	active := r.recording
	r.stream = nil
	r.recording = false
	r.chunks = nil
	r.mu.Unlock()

	if !active {
		return nil
	}

	err := stream.Close()
	if ferr := r.encoder.Finalize(); ferr != nil {
		r.logger.Debug("encoder finalize after close", "error", ferr)
	}

	r.mu.Lock()
	r.chunks = nil
	r.mu.Unlock()
	return err
}

// release closes a stream opened by an abandoned Start and stops its encoder.
func (r *Recorder) release(stream InputStream) {
	if err := stream.Close(); err != nil {
		r.logger.Warn("failed to release input device", "error", err)
	}
	if err := r.encoder.Finalize(); err != nil {
		r.logger.Debug("encoder finalize after close", "error", err)
	}
}

func concat(chunks [][]byte) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
