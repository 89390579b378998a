package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/desertthunder/moodify/internal/shared"
)

const (
	// HeaderSize is the length of the canonical RIFF/WAVE header.
	HeaderSize = 44

	formatPCM     = 1
	bitsPerSample = 16
	bytesPerSamp  = bitsPerSample / 8
)

// Header is the canonical 44-byte WAV header.
type Header struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// NewHeader builds a 16-bit PCM header for dataSize bytes of samples.
func NewHeader(channels, sampleRate int, dataSize uint32) Header {
	blockAlign := channels * bytesPerSamp
	return Header{
		AudioFormat:   formatPCM,
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: bitsPerSample,
		DataSize:      dataSize,
	}
}

// WriteHeader writes h in RIFF layout.
func WriteHeader(w io.Writer, h Header) error {
	raw := struct {
		RiffID        [4]byte
		RiffSize      uint32
		WaveID        [4]byte
		FmtID         [4]byte
		FmtSize       uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		DataID        [4]byte
		DataSize      uint32
	}{
		RiffID:        [4]byte{'R', 'I', 'F', 'F'},
		RiffSize:      36 + h.DataSize,
		WaveID:        [4]byte{'W', 'A', 'V', 'E'},
		FmtID:         [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   h.AudioFormat,
		Channels:      h.Channels,
		SampleRate:    h.SampleRate,
		ByteRate:      h.ByteRate,
		BlockAlign:    h.BlockAlign,
		BitsPerSample: h.BitsPerSample,
		DataID:        [4]byte{'d', 'a', 't', 'a'},
		DataSize:      h.DataSize,
	}
	return binary.Write(w, binary.LittleEndian, &raw)
}

// ParseHeader reads the fmt and data chunks of a RIFF/WAVE file.
//
// Chunks other than fmt and data are skipped. It returns the header and the offset of the first sample.
func ParseHeader(data []byte) (Header, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Header{}, 0, fmt.Errorf("%w: not a RIFF/WAVE file", shared.ErrAudioDecode)
	}

	var h Header
	var haveFmt bool
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return Header{}, 0, fmt.Errorf("%w: truncated fmt chunk", shared.ErrAudioDecode)
			}
			f := data[body:]
			h.AudioFormat = binary.LittleEndian.Uint16(f[0:2])
			h.Channels = binary.LittleEndian.Uint16(f[2:4])
			h.SampleRate = binary.LittleEndian.Uint32(f[4:8])
			h.ByteRate = binary.LittleEndian.Uint32(f[8:12])
			h.BlockAlign = binary.LittleEndian.Uint16(f[12:14])
			h.BitsPerSample = binary.LittleEndian.Uint16(f[14:16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return Header{}, 0, fmt.Errorf("%w: data chunk before fmt chunk", shared.ErrAudioDecode)
			}
			h.DataSize = uint32(min(size, len(data)-body))
			return h, body, nil
		}

		pos = body + size + size%2
	}
	return Header{}, 0, fmt.Errorf("%w: missing data chunk", shared.ErrAudioDecode)
}

// Quantize clamps s to [-1, 1] and converts it to a signed 16-bit sample.
//
// Negative values scale by 32768 and non-negative values by 32767. NaN maps to 0.
func Quantize(s float32) int16 {
	x := float64(s)
	switch {
	case math.IsNaN(x):
		return 0
	case x < -1:
		x = -1
	case x > 1:
		x = 1
	}
	if x < 0 {
		return int16(math.Round(x * 0x8000))
	}
	return int16(math.Round(x * 0x7FFF))
}

// Dequantize is the inverse of [Quantize].
func Dequantize(v int16) float32 {
	if v < 0 {
		return float32(float64(v) / 0x8000)
	}
	return float32(float64(v) / 0x7FFF)
}

// EncodeWAV renders w as a 16-bit PCM WAV file.
func EncodeWAV(w *Waveform, mode ChannelMode) ([]byte, error) {
	if w == nil || w.NumChannels() == 0 {
		return nil, fmt.Errorf("%w: waveform has no channels", shared.ErrAudioDecode)
	}
	if w.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", shared.ErrAudioDecode, w.SampleRate)
	}
	frames := w.Frames()
	if frames == 0 {
		return nil, fmt.Errorf("%w: waveform has no samples", shared.ErrAudioDecode)
	}
	for i, ch := range w.Channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("%w: channel %d has %d samples, expected %d", shared.ErrAudioDecode, i, len(ch), frames)
		}
	}

	channels := w.Channels
	if mode == Downmix && len(channels) > 1 {
		channels = [][]float32{downmix(channels)}
	}

	size := uint64(frames) * uint64(len(channels)) * bytesPerSamp
	if size > math.MaxUint32-36 {
		return nil, fmt.Errorf("%w: recording too long for WAV", shared.ErrAudioDecode)
	}

	var buf bytes.Buffer
	buf.Grow(HeaderSize + int(size))
	if err := WriteHeader(&buf, NewHeader(len(channels), w.SampleRate, uint32(size))); err != nil {
		return nil, err
	}

	sample := make([]byte, bytesPerSamp)
	for i := range frames {
		for _, ch := range channels {
			binary.LittleEndian.PutUint16(sample, uint16(Quantize(ch[i])))
			buf.Write(sample)
		}
	}
	return buf.Bytes(), nil
}

func downmix(channels [][]float32) []float32 {
	out := make([]float32, len(channels[0]))
	n := float64(len(channels))
	for i := range out {
		var sum float64
		for _, ch := range channels {
			sum += float64(ch[i])
		}
		out[i] = float32(sum / n)
	}
	return out
}

// DecodeWAV parses a 16-bit PCM WAV file into a [Waveform].
func DecodeWAV(data []byte) (*Waveform, error) {
	h, offset, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.AudioFormat != formatPCM || h.BitsPerSample != bitsPerSample {
		return nil, fmt.Errorf("%w: only 16-bit PCM is supported (format %d, %d bits)", shared.ErrUnsupportedFormat, h.AudioFormat, h.BitsPerSample)
	}
	if h.Channels == 0 || h.SampleRate == 0 {
		return nil, fmt.Errorf("%w: header declares %d channels at %d Hz", shared.ErrAudioDecode, h.Channels, h.SampleRate)
	}

	nch := int(h.Channels)
	frames := int(h.DataSize) / (nch * bytesPerSamp)
	w := &Waveform{SampleRate: int(h.SampleRate), Channels: make([][]float32, nch)}
	for c := range w.Channels {
		w.Channels[c] = make([]float32, frames)
	}

	pcm := data[offset:]
	for i := range frames {
		for c := range nch {
			at := (i*nch + c) * bytesPerSamp
			w.Channels[c][i] = Dequantize(int16(binary.LittleEndian.Uint16(pcm[at:])))
		}
	}
	return w, nil
}

// WAVDecoder implements [Decoder] for 16-bit PCM WAV input.
type WAVDecoder struct{}

func (WAVDecoder) Decode(ctx context.Context, data []byte) (*Waveform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DecodeWAV(data)
}
