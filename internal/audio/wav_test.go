package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/desertthunder/moodify/internal/shared"
)

func TestQuantize(t *testing.T) {
	tc := []struct {
		name string
		in   float32
		want int16
	}{
		{name: "zero", in: 0, want: 0},
		{name: "full scale positive", in: 1, want: 32767},
		{name: "full scale negative", in: -1, want: -32768},
		{name: "half positive", in: 0.5, want: 16384},
		{name: "half negative", in: -0.5, want: -16384},
		{name: "clamps above range", in: 1.5, want: 32767},
		{name: "clamps below range", in: -3, want: -32768},
		{name: "positive infinity", in: float32(math.Inf(1)), want: 32767},
		{name: "NaN", in: float32(math.NaN()), want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quantize(tt.in); got != tt.want {
				t.Errorf("Quantize(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuantizeIdempotent(t *testing.T) {
	for v := math.MinInt16; v <= math.MaxInt16; v++ {
		s := int16(v)
		if got := Quantize(Dequantize(s)); got != s {
			t.Fatalf("Quantize(Dequantize(%d)) = %d", s, got)
		}
	}
}

func TestEncodeWAV(t *testing.T) {
	t.Run("one second mono 16 kHz", func(t *testing.T) {
		w := &Waveform{SampleRate: 16000, Channels: [][]float32{make([]float32, 16000)}}
		data, err := EncodeWAV(w, Interleave)
		if err != nil {
			t.Fatalf("EncodeWAV() error = %v", err)
		}
		if len(data) != HeaderSize+32000 {
			t.Fatalf("len = %d, want %d", len(data), HeaderSize+32000)
		}

		h, offset, err := ParseHeader(data)
		if err != nil {
			t.Fatalf("ParseHeader() error = %v", err)
		}
		if offset != HeaderSize {
			t.Errorf("data offset = %d, want %d", offset, HeaderSize)
		}
		want := Header{AudioFormat: 1, Channels: 1, SampleRate: 16000, ByteRate: 32000, BlockAlign: 2, BitsPerSample: 16, DataSize: 32000}
		if h != want {
			t.Errorf("header = %+v, want %+v", h, want)
		}
	})

	t.Run("declared lengths match data", func(t *testing.T) {
		for _, frames := range []int{0, 1, 7, 441} {
			w := &Waveform{SampleRate: 44100, Channels: [][]float32{make([]float32, frames), make([]float32, frames)}}
			data, err := EncodeWAV(w, Interleave)
			if err != nil {
				t.Fatalf("EncodeWAV() error = %v", err)
			}
			riff := binary.LittleEndian.Uint32(data[4:8])
			size := binary.LittleEndian.Uint32(data[40:44])
			if int(size) != len(data)-HeaderSize {
				t.Errorf("frames=%d: data size %d, trailing bytes %d", frames, size, len(data)-HeaderSize)
			}
			if int(riff) != len(data)-8 {
				t.Errorf("frames=%d: riff size %d, want %d", frames, riff, len(data)-8)
			}
		}
	})

	t.Run("clamps out of range samples", func(t *testing.T) {
		w := &Waveform{SampleRate: 8000, Channels: [][]float32{{1.5, -2, 0.25}}}
		data, err := EncodeWAV(w, Interleave)
		if err != nil {
			t.Fatalf("EncodeWAV() error = %v", err)
		}
		got := samples(data[HeaderSize:])
		want := []int16{32767, -32768, Quantize(0.25)}
		if !slices.Equal(got, want) {
			t.Errorf("samples = %v, want %v", got, want)
		}
	})

	t.Run("interleaves channels", func(t *testing.T) {
		w := &Waveform{SampleRate: 8000, Channels: [][]float32{{1, 0}, {-1, 0.5}}}
		data, err := EncodeWAV(w, Interleave)
		if err != nil {
			t.Fatalf("EncodeWAV() error = %v", err)
		}
		h, _, _ := ParseHeader(data)
		if h.Channels != 2 || h.BlockAlign != 4 || h.ByteRate != 32000 {
			t.Errorf("header = %+v", h)
		}
		want := []int16{32767, -32768, 0, Quantize(0.5)}
		if got := samples(data[HeaderSize:]); !slices.Equal(got, want) {
			t.Errorf("samples = %v, want %v", got, want)
		}
	})

	t.Run("downmix averages channels", func(t *testing.T) {
		w := &Waveform{SampleRate: 8000, Channels: [][]float32{{1, 0}, {0, 0.5}}}
		data, err := EncodeWAV(w, Downmix)
		if err != nil {
			t.Fatalf("EncodeWAV() error = %v", err)
		}
		h, _, _ := ParseHeader(data)
		if h.Channels != 1 || h.BlockAlign != 2 || h.DataSize != 4 {
			t.Errorf("header = %+v", h)
		}
		want := []int16{Quantize(0.5), Quantize(0.25)}
		if got := samples(data[HeaderSize:]); !slices.Equal(got, want) {
			t.Errorf("samples = %v, want %v", got, want)
		}
	})

	t.Run("rejects ragged channels", func(t *testing.T) {
		w := &Waveform{SampleRate: 8000, Channels: [][]float32{{0, 0}, {0}}}
		if _, err := EncodeWAV(w, Interleave); !errors.Is(err, shared.ErrAudioDecode) {
			t.Errorf("expected ErrAudioDecode, got %v", err)
		}
	})

	t.Run("rejects empty waveform", func(t *testing.T) {
		if _, err := EncodeWAV(&Waveform{SampleRate: 8000}, Interleave); !errors.Is(err, shared.ErrAudioDecode) {
			t.Errorf("expected ErrAudioDecode, got %v", err)
		}
	})

	t.Run("rejects channels without samples", func(t *testing.T) {
		w := &Waveform{SampleRate: 16000, Channels: [][]float32{{}, {}}}
		if b, err := EncodeWAV(w, Downmix); !errors.Is(err, shared.ErrAudioDecode) || b != nil {
			t.Errorf("expected ErrAudioDecode and no bytes, got %d bytes, %v", len(b), err)
		}
	})
}

func TestDecodeWAV(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := &Waveform{SampleRate: 16000, Channels: [][]float32{{0, 0.5, -0.5, 1, -1}, {0.1, 0.2, 0.3, 0.4, 0.5}}}
		data, err := EncodeWAV(in, Interleave)
		if err != nil {
			t.Fatalf("EncodeWAV() error = %v", err)
		}
		out, err := DecodeWAV(data)
		if err != nil {
			t.Fatalf("DecodeWAV() error = %v", err)
		}
		if out.SampleRate != 16000 || out.NumChannels() != 2 || out.Frames() != 5 {
			t.Fatalf("decoded %d Hz, %d channels, %d frames", out.SampleRate, out.NumChannels(), out.Frames())
		}

		again, err := EncodeWAV(out, Interleave)
		if err != nil {
			t.Fatalf("EncodeWAV() error = %v", err)
		}
		if !bytes.Equal(data, again) {
			t.Error("re-encoding a decoded file changed its bytes")
		}
	})

	t.Run("skips unknown chunks", func(t *testing.T) {
		data, _ := EncodeWAV(&Waveform{SampleRate: 8000, Channels: [][]float32{{0.25, -0.25}}}, Interleave)

		var withList bytes.Buffer
		withList.Write(data[:36])
		withList.WriteString("LIST")
		binary.Write(&withList, binary.LittleEndian, uint32(3))
		withList.Write([]byte{'a', 'b', 'c', 0})
		withList.Write(data[36:])

		out, err := DecodeWAV(withList.Bytes())
		if err != nil {
			t.Fatalf("DecodeWAV() error = %v", err)
		}
		if out.Frames() != 2 {
			t.Errorf("frames = %d, want 2", out.Frames())
		}
	})

	t.Run("rejects non PCM16", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewHeader(1, 8000, 0)
		h.BitsPerSample = 24
		if err := WriteHeader(&buf, h); err != nil {
			t.Fatalf("WriteHeader() error = %v", err)
		}
		if _, err := DecodeWAV(buf.Bytes()); !errors.Is(err, shared.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := DecodeWAV([]byte("webm bytes, not riff")); !errors.Is(err, shared.ErrAudioDecode) {
			t.Errorf("expected ErrAudioDecode, got %v", err)
		}
	})
}

func TestDeinterleaveF32(t *testing.T) {
	raw := make([]byte, 0, 16)
	for _, v := range []float32{0.5, -0.5, 0.25, -0.25} {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}

	w, err := deinterleaveF32(raw, 2, 16000)
	if err != nil {
		t.Fatalf("deinterleaveF32() error = %v", err)
	}
	if !slices.Equal(w.Channels[0], []float32{0.5, 0.25}) || !slices.Equal(w.Channels[1], []float32{-0.5, -0.25}) {
		t.Errorf("channels = %v", w.Channels)
	}

	if _, err := deinterleaveF32(raw[:4], 2, 16000); !errors.Is(err, shared.ErrAudioDecode) {
		t.Errorf("expected ErrAudioDecode for a partial frame, got %v", err)
	}
}

func TestEncodeArgs(t *testing.T) {
	args, err := encodeArgs(DefaultEncoderConfig())
	if err != nil {
		t.Fatalf("encodeArgs() error = %v", err)
	}
	for _, want := range []string{"s16le", "16000", "libopus", "webm", "pipe:0", "pipe:1"} {
		if !slices.Contains(args, want) {
			t.Errorf("args %v missing %q", args, want)
		}
	}

	if _, err := encodeArgs(EncoderConfig{MIMEType: "audio/mp4", Bitrate: 16000, SampleRate: 16000, Channels: 1}); !errors.Is(err, shared.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	format, codec, err := containerFor("audio/ogg; codecs=vorbis")
	if err != nil || format != "ogg" || codec != "libvorbis" {
		t.Errorf("containerFor(ogg/vorbis) = %s, %s, %v", format, codec, err)
	}
}

func TestParseChannelMode(t *testing.T) {
	tc := []struct {
		in      string
		want    ChannelMode
		wantErr bool
	}{
		{in: "", want: Interleave},
		{in: "interleave", want: Interleave},
		{in: " Downmix ", want: Downmix},
		{in: "surround", wantErr: true},
	}

	for _, tt := range tc {
		got, err := ParseChannelMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseChannelMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseChannelMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func samples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}
