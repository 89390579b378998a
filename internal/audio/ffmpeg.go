package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/shared"
)

const chunkSize = 4096

// containerFor maps an encoder media type to ffmpeg's muxer and codec names.
func containerFor(mimeType string) (format, codec string, err error) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, mimeType)
	}

	codec = "libopus"
	if c := strings.ToLower(params["codecs"]); c != "" && c != "opus" {
		if c != "vorbis" {
			return "", "", fmt.Errorf("%w: codec %q", shared.ErrUnsupportedFormat, c)
		}
		codec = "libvorbis"
	}

	switch mediaType {
	case "audio/webm":
		return "webm", codec, nil
	case "audio/ogg":
		return "ogg", codec, nil
	default:
		return "", "", fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, mediaType)
	}
}

func encodeArgs(cfg EncoderConfig) ([]string, error) {
	format, codec, err := containerFor(cfg.MIMEType)
	if err != nil {
		return nil, err
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-ac", strconv.Itoa(cfg.Channels),
		"-i", "pipe:0",
		"-c:a", codec,
		"-b:a", strconv.Itoa(cfg.Bitrate),
		"-f", format,
		"pipe:1",
	}, nil
}

func decodeArgs(sampleRate, channels int) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-f", "f32le",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"pipe:1",
	}
}

// FFmpegEncoder implements [StreamingEncoder] with an ffmpeg subprocess.
type FFmpegEncoder struct {
	path   string
	logger *log.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	done   chan error
}

// NewFFmpegEncoder creates an encoder that runs the ffmpeg binary at path.
func NewFFmpegEncoder(path string, logger *log.Logger) *FFmpegEncoder {
	if path == "" {
		path = "ffmpeg"
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &FFmpegEncoder{path: path, logger: logger}
}

// Start launches ffmpeg with src as stdin. Encoded stdout is delivered to onChunk from a reader goroutine.
func (e *FFmpegEncoder) Start(ctx context.Context, src io.Reader, cfg EncoderConfig, onChunk ChunkFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd != nil {
		return shared.ErrRecordingActive
	}

	args, err := encodeArgs(cfg)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, e.path, args...)
	detach(cmd)
	cmd.Stdin = src
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, chunkSize)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				onChunk(buf[:n])
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				done <- err
				return
			}
		}
	}()

	e.cmd = cmd
	e.stderr = stderr
	e.done = done
	e.logger.Debug("ffmpeg encoder started", "args", strings.Join(args, " "))
	return nil
}

// Finalize waits for ffmpeg to drain its input and exit.
func (e *FFmpegEncoder) Finalize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return shared.ErrNotRecording
	}
	defer func() {
		e.cmd = nil
		e.stderr = nil
		e.done = nil
	}()

	readErr := <-e.done
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encoder: %w: %s", err, strings.TrimSpace(e.stderr.String()))
	}
	if readErr != nil {
		return fmt.Errorf("ffmpeg encoder output: %w", readErr)
	}
	return nil
}

// FFmpegDecoder implements [Decoder] by resampling any input to float PCM with ffmpeg.
type FFmpegDecoder struct {
	path       string
	sampleRate int
	channels   int
}

// NewFFmpegDecoder creates a decoder producing sampleRate Hz audio with the given channel count.
func NewFFmpegDecoder(path string, sampleRate, channels int) *FFmpegDecoder {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegDecoder{path: path, sampleRate: sampleRate, channels: channels}
}

func (d *FFmpegDecoder) Decode(ctx context.Context, data []byte) (*Waveform, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.path, decodeArgs(d.sampleRate, d.channels)...)
	detach(cmd)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", shared.ErrAudioDecode, err, strings.TrimSpace(stderr.String()))
	}
	return deinterleaveF32(stdout.Bytes(), d.channels, d.sampleRate)
}

// deinterleaveF32 splits little-endian interleaved float32 PCM into channels.
func deinterleaveF32(raw []byte, channels, sampleRate int) (*Waveform, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("%w: invalid channel count %d", shared.ErrAudioDecode, channels)
	}
	frameSize := channels * 4
	frames := len(raw) / frameSize
	if frames == 0 {
		return nil, fmt.Errorf("%w: decoder produced no samples", shared.ErrAudioDecode)
	}

	w := &Waveform{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for c := range w.Channels {
		w.Channels[c] = make([]float32, frames)
	}
	for i := range frames {
		for c := range channels {
			at := i*frameSize + c*4
			w.Channels[c][i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[at:]))
		}
	}
	return w, nil
}
