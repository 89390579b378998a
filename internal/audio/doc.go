// Package audio captures microphone input and turns it into an uploadable WAV file.
//
// # Capture
//
// A [Recorder] owns one recording session at a time. [Recorder.Start] opens an
// [AudioInputSource] and feeds its PCM into a [StreamingEncoder], which delivers
// compressed chunks back to the session in arrival order. [Recorder.Stop] releases
// the device, flushes the encoder and hands the concatenated chunks to [Transcode].
//
// # Transcoding
//
// [Transcode] decodes the compressed blob with a [Decoder] and re-encodes the
// waveform as 16-bit PCM WAV: a 44-byte RIFF header followed by little-endian
// samples. Samples are clamped to [-1, 1]; negative values scale by 32768 and
// the rest by 32767. Multi-channel input is either interleaved or averaged into
// mono according to [ChannelMode].
//
// # Implementations
//
//   - [Microphone] : PortAudio input (requires cgo)
//   - [FFmpegEncoder] : PCM to WebM/Opus through an ffmpeg subprocess
//   - [FFmpegDecoder] : any container ffmpeg understands to float PCM
//   - [WAVDecoder] : 16-bit PCM WAV without external tools
//
// Externally supplied files bypass transcoding and go through [AcceptFile].
package audio
