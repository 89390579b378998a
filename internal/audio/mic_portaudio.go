//go:build cgo

package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/gordonklaus/portaudio"
)

const defaultFramesPerBuffer = 1024

// Microphone is an [AudioInputSource] backed by the default PortAudio input device.
type Microphone struct {
	framesPerBuffer int
	logger          *log.Logger
}

// NewMicrophone creates a [Microphone]. A zero framesPerBuffer selects 1024.
func NewMicrophone(framesPerBuffer int, logger *log.Logger) *Microphone {
	if framesPerBuffer <= 0 {
		framesPerBuffer = defaultFramesPerBuffer
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Microphone{framesPerBuffer: framesPerBuffer, logger: logger}
}

// Open initializes PortAudio and starts a blocking input stream.
//
// PortAudio exposes no voice processing controls, so the echo, noise and gain
// flags are left to the host audio stack.
func (m *Microphone) Open(ctx context.Context, c Constraints) (InputStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.BitDepth != 0 && c.BitDepth != 16 {
		return nil, fmt.Errorf("%w: %d-bit capture", shared.ErrUnsupportedFormat, c.BitDepth)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDeviceAccess, err)
	}

	buf := make([]int16, m.framesPerBuffer*c.Channels)
	stream, err := portaudio.OpenDefaultStream(c.Channels, 0, float64(c.SampleRate), m.framesPerBuffer, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", shared.ErrDeviceAccess, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", shared.ErrDeviceAccess, err)
	}

	m.logger.Debug("microphone opened",
		"rate", c.SampleRate, "channels", c.Channels,
		"echo_cancellation", c.EchoCancellation, "noise_suppression", c.NoiseSuppression, "auto_gain", c.AutoGainControl)

	return &micStream{stream: stream, buf: buf, pcm: make([]byte, 0, len(buf)*2)}, nil
}

type micStream struct {
	stream *portaudio.Stream
	buf    []int16

	readMu  sync.Mutex
	pcm     []byte
	closed  atomic.Bool
	closeMu sync.Once
	err     error
}

func (s *micStream) Read(p []byte) (int, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if len(s.pcm) == 0 {
		if s.closed.Load() {
			return 0, io.EOF
		}
		if err := s.stream.Read(); err != nil {
			if s.closed.Load() {
				return 0, io.EOF
			}
			if err != portaudio.InputOverflowed {
				return 0, err
			}
		}
		s.pcm = s.pcm[:0]
		for _, v := range s.buf {
			s.pcm = binary.LittleEndian.AppendUint16(s.pcm, uint16(v))
		}
	}

	n := copy(p, s.pcm)
	s.pcm = s.pcm[n:]
	return n, nil
}

// Close stops the stream, which unblocks a pending Read, then frees the device.
func (s *micStream) Close() error {
	s.closeMu.Do(func() {
		s.closed.Store(true)
		// PortAudio does not document Pa_StopStream as safe against a concurrent
		// Pa_ReadStream. The ALSA, CoreAudio and WASAPI hosts return from the read
		// once the stream stops, and Close waits on readMu before freeing anything,
		// so a stuck read can delay Close but never touches a closed stream.
		stopErr := s.stream.Stop()

		s.readMu.Lock()
		defer s.readMu.Unlock()
		closeErr := s.stream.Close()
		termErr := portaudio.Terminate()

		for _, err := range []error{stopErr, closeErr, termErr} {
			if err != nil && s.err == nil {
				s.err = fmt.Errorf("%w: %v", shared.ErrDeviceAccess, err)
			}
		}
	})
	return s.err
}
