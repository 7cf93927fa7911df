// Package audio reads, writes and trims PCM WAV recordings.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInvalidTrim       = errors.New("invalid trim range")
)

// OutputBitDepth is the sample size of encoded WAV files.
const OutputBitDepth = 16

const wavPCM = 1

// Clip is decoded audio. Samples are interleaved by channel and normalised
// to [-1, 1].
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []float64
}

// Frames returns the number of samples per channel.
func (c *Clip) Frames() int {
	if c == nil || c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Seconds returns the clip length in seconds.
func (c *Clip) Seconds() float64 {
	if c == nil || c.SampleRate == 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

func (c *Clip) Duration() time.Duration {
	return time.Duration(c.Seconds() * float64(time.Second))
}

// Decode reads a PCM WAV stream.
func Decode(r io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrUnsupportedFormat)
	}
	if decoder.WavAudioFormat != wavPCM {
		return nil, fmt.Errorf("%w: wav encoding %d", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}
	switch decoder.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, decoder.BitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading pcm data: %w", err)
	}

	maxVal := float64(int(1) << (uint(decoder.BitDepth) - 1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / maxVal
	}

	return &Clip{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		Samples:    samples,
	}, nil
}

// DecodeBytes is Decode over an in-memory file.
func DecodeBytes(data []byte) (*Clip, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes clip as a 16-bit PCM WAV file. Samples outside [-1, 1] are
// clipped.
func Encode(w io.WriteSeeker, clip *Clip) error {
	if clip == nil || clip.Channels <= 0 || clip.SampleRate <= 0 {
		return fmt.Errorf("%w: clip has no channels or sample rate", ErrUnsupportedFormat)
	}

	data := make([]int, len(clip.Samples))
	for i, s := range clip.Samples {
		s = math.Max(-1, math.Min(1, s))
		if s < 0 {
			data[i] = int(math.Round(s * 0x8000))
		} else {
			data[i] = int(math.Round(s * 0x7FFF))
		}
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: clip.Channels,
			SampleRate:  clip.SampleRate,
		},
		Data:           data,
		SourceBitDepth: OutputBitDepth,
	}

	enc := wav.NewEncoder(w, clip.SampleRate, OutputBitDepth, clip.Channels, wavPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing pcm data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalising wav header: %w", err)
	}
	return nil
}

// EncodeBytes returns clip as an in-memory WAV file.
func EncodeBytes(clip *Clip) ([]byte, error) {
	// The encoder seeks back to patch the header sizes on Close.
	ws := &writerseeker.WriterSeeker{}
	if err := Encode(ws, clip); err != nil {
		return nil, err
	}
	return io.ReadAll(ws.Reader())
}

// Trim returns the part of clip between start and end seconds. The bounds
// are clamped to the clip.
func Trim(clip *Clip, start, end float64) (*Clip, error) {
	if clip == nil {
		return nil, fmt.Errorf("%w: no audio", ErrInvalidTrim)
	}
	start = math.Max(0, start)
	end = math.Min(clip.Seconds(), end)
	if end <= start {
		return nil, fmt.Errorf("%w: end %.3fs is not after start %.3fs", ErrInvalidTrim, end, start)
	}

	from := int(math.Floor(start*float64(clip.SampleRate))) * clip.Channels
	to := int(math.Floor(end*float64(clip.SampleRate))) * clip.Channels
	if to > len(clip.Samples) {
		to = len(clip.Samples)
	}

	out := make([]float64, to-from)
	copy(out, clip.Samples[from:to])
	return &Clip{SampleRate: clip.SampleRate, Channels: clip.Channels, Samples: out}, nil
}

// IsWAV reports whether mime names a WAV container or data starts with a
// RIFF/WAVE header.
func IsWAV(data []byte, mime string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.Split(mime, ";")[0])) {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return true
	}
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// Probe returns the duration in seconds of a WAV blob, or nil when the
// blob is some other container or cannot be read.
func Probe(data []byte, mime string) *float64 {
	if !IsWAV(data, mime) {
		return nil
	}
	clip, err := DecodeBytes(data)
	if err != nil {
		return nil
	}
	secs := clip.Seconds()
	return &secs
}

// DetectMIME sniffs the container type of data. Unknown content yields
// "application/octet-stream".
func DetectMIME(data []byte) string {
	m := mimetype.Detect(data)
	if m.Is("video/webm") {
		// MediaRecorder output carries no video track.
		return "audio/webm"
	}
	return strings.Split(m.String(), ";")[0]
}
