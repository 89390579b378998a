package testing

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/moodify/internal/audio"
)

// FakeStream is an [audio.InputStream] over fixed PCM bytes.
type FakeStream struct {
	r        *bytes.Reader
	closed   atomic.Bool
	closes   atomic.Int32
	CloseErr error
}

func NewFakeStream(pcm []byte) *FakeStream {
	return &FakeStream{r: bytes.NewReader(pcm)}
}

func (s *FakeStream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, io.EOF
	}
	return s.r.Read(p)
}

func (s *FakeStream) Close() error {
	s.closed.Store(true)
	s.closes.Add(1)
	return s.CloseErr
}

// Closed reports whether Close has been called.
func (s *FakeStream) Closed() bool { return s.closed.Load() }

// Closes returns the number of Close calls.
func (s *FakeStream) Closes() int { return int(s.closes.Load()) }

// FakeSource is an [audio.AudioInputSource] handing out a fresh [FakeStream] per Open.
type FakeSource struct {
	PCM     []byte
	OpenErr error
	// OnOpen runs after a stream is handed out, outside the source's lock.
	OnOpen func()

	mu          sync.Mutex
	Streams     []*FakeStream
	Constraints []audio.Constraints
}

func (f *FakeSource) Open(ctx context.Context, c audio.Constraints) (audio.InputStream, error) {
	f.mu.Lock()
	f.Constraints = append(f.Constraints, c)
	if f.OpenErr != nil {
		f.mu.Unlock()
		return nil, f.OpenErr
	}
	s := NewFakeStream(f.PCM)
	f.Streams = append(f.Streams, s)
	f.mu.Unlock()

	if f.OnOpen != nil {
		f.OnOpen()
	}
	return s, nil
}

// Last returns the most recently opened stream, or nil.
func (f *FakeSource) Last() *FakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Streams) == 0 {
		return nil
	}
	return f.Streams[len(f.Streams)-1]
}

// FakeEncoder is an [audio.StreamingEncoder] that emits preset chunks on Finalize.
type FakeEncoder struct {
	Chunks      [][]byte
	StartErr    error
	FinalizeErr error

	Config                 audio.EncoderConfig
	SourceClosedAtFinalize bool
	Finalized              int

	src     io.Reader
	onChunk audio.ChunkFunc
}

func (e *FakeEncoder) Start(ctx context.Context, src io.Reader, cfg audio.EncoderConfig, onChunk audio.ChunkFunc) error {
	if e.StartErr != nil {
		return e.StartErr
	}
	e.Config = cfg
	e.src = src
	e.onChunk = onChunk
	return nil
}

func (e *FakeEncoder) Finalize() error {
	e.Finalized++
	if s, ok := e.src.(*FakeStream); ok {
		e.SourceClosedAtFinalize = s.Closed()
	}
	if e.FinalizeErr != nil {
		return e.FinalizeErr
	}
	if e.onChunk != nil {
		for _, c := range e.Chunks {
			e.onChunk(c)
		}
	}
	return nil
}

// FakeDecoder is an [audio.Decoder] returning a preset waveform.
type FakeDecoder struct {
	Waveform *audio.Waveform
	Err      error
	Input    []byte
	Calls    int
}

func (d *FakeDecoder) Decode(ctx context.Context, data []byte) (*audio.Waveform, error) {
	d.Calls++
	d.Input = bytes.Clone(data)
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Waveform, nil
}

// Tone returns a mono waveform of n samples alternating between +v and -v.
func Tone(sampleRate, n int, v float32) *audio.Waveform {
	ch := make([]float32, n)
	for i := range ch {
		if i%2 == 0 {
			ch[i] = v
		} else {
			ch[i] = -v
		}
	}
	return &audio.Waveform{SampleRate: sampleRate, Channels: [][]float32{ch}}
}
