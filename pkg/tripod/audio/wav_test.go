package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineClip(seconds float64, rate, channels int) *Clip {
	frames := int(seconds * float64(rate))
	samples := make([]float64, frames*channels)
	for f := 0; f < frames; f++ {
		v := 0.8 * math.Sin(2*math.Pi*440*float64(f)/float64(rate))
		for ch := 0; ch < channels; ch++ {
			samples[f*channels+ch] = v
		}
	}
	return &Clip{SampleRate: rate, Channels: channels, Samples: samples}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	clip := sineClip(0.5, 8000, 2)

	data, err := EncodeBytes(clip)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))

	got, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 8000, got.SampleRate)
	assert.Equal(t, 2, got.Channels)
	require.Len(t, got.Samples, len(clip.Samples))
	for i := range clip.Samples {
		if math.Abs(got.Samples[i]-clip.Samples[i]) > 1e-3 {
			t.Fatalf("Sample %d: expected %f, got %f", i, clip.Samples[i], got.Samples[i])
		}
	}
	assert.InDelta(t, 0.5, got.Seconds(), 1e-9)
}

func TestEncodeBytesPatchesHeaderSizes(t *testing.T) {
	clip := sineClip(0.25, 8000, 1)

	data, err := EncodeBytes(clip)
	require.NoError(t, err)
	require.Len(t, data, 44+2*len(clip.Samples))

	assert.Equal(t, uint32(len(data)-8), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(2*len(clip.Samples)), binary.LittleEndian.Uint32(data[40:44]))
}

func TestEncodeClipsOutOfRange(t *testing.T) {
	data, err := EncodeBytes(&Clip{SampleRate: 8000, Channels: 1, Samples: []float64{-3, 3, 0}})
	require.NoError(t, err)

	got, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, got.Samples[0], 1e-9)
	assert.InDelta(t, 1.0, got.Samples[1], 1e-3)
	assert.Equal(t, 0.0, got.Samples[2])
}

func TestEncodeRejectsEmptyFormat(t *testing.T) {
	_, err := EncodeBytes(&Clip{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeRejectsNonWAV(t *testing.T) {
	_, err := DecodeBytes([]byte("\x1aE\xdf\xa3 this is webm"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTrim(t *testing.T) {
	clip := sineClip(2, 1000, 1)

	got, err := Trim(clip, 0.5, 1.25)
	require.NoError(t, err)
	assert.Equal(t, 750, got.Frames())
	assert.Equal(t, clip.Samples[500], got.Samples[0])

	clamped, err := Trim(clip, -1, 99)
	require.NoError(t, err)
	assert.Equal(t, clip.Frames(), clamped.Frames())

	stereo := sineClip(1, 1000, 2)
	half, err := Trim(stereo, 0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 500, half.Frames())
	assert.Len(t, half.Samples, 1000)
}

func TestTrimInvalid(t *testing.T) {
	clip := sineClip(1, 1000, 1)

	tests := []struct {
		name       string
		start, end float64
	}{
		{"reversed", 0.8, 0.2},
		{"empty", 0.5, 0.5},
		{"past end", 1.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Trim(clip, tt.start, tt.end)
			assert.ErrorIs(t, err, ErrInvalidTrim)
		})
	}

	_, err := Trim(nil, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidTrim)
}

func TestProbe(t *testing.T) {
	data, err := EncodeBytes(sineClip(1.5, 8000, 1))
	require.NoError(t, err)

	d := Probe(data, "audio/wav")
	require.NotNil(t, d)
	assert.InDelta(t, 1.5, *d, 1e-9)

	// Sniffed from the header when the MIME type is generic.
	d = Probe(data, "application/octet-stream")
	require.NotNil(t, d)

	assert.Nil(t, Probe([]byte("not audio"), "audio/webm;codecs=opus"))
	assert.Nil(t, Probe([]byte("garbage"), "audio/wav"))
}

func TestIsWAV(t *testing.T) {
	assert.True(t, IsWAV(nil, "audio/x-wav"))
	assert.True(t, IsWAV(nil, "Audio/WAV; rate=8000"))
	assert.False(t, IsWAV(nil, "audio/webm"))
	assert.True(t, IsWAV([]byte("RIFF\x00\x00\x00\x00WAVE"), ""))
}

func TestDetectMIME(t *testing.T) {
	data, err := EncodeBytes(sineClip(0.1, 8000, 1))
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", DetectMIME(data))
	assert.Equal(t, "application/octet-stream", DetectMIME([]byte{0x00, 0x01, 0x02, 0x03}))
}
