package models

import "time"

// Language describes the language variety an entry was recorded in.
type Language struct {
	Name    string `json:"name" validate:"required"`
	Code    string `json:"code" validate:"required"`
	Dialect string `json:"dialect,omitempty"`
}

// TranscriptText holds both representations of a transcript.
// Rich is the editor markup (HTML with data-marker spans), Plain is its
// plain-text projection.
type TranscriptText struct {
	Rich  string `json:"rich,omitempty"`
	Plain string `json:"plain" validate:"required"`
}

// AudioInfo is the audio metadata carried on an entry. The payload itself is
// stored separately as an AudioBlob.
type AudioInfo struct {
	Present     bool     `json:"present"`
	MimeType    string   `json:"mimeType,omitempty"`
	Size        int64    `json:"size,omitempty"`
	DurationSec *float64 `json:"durationSec,omitempty"`
}

// Entry is one recorded/transcribed fieldwork session and its metadata.
type Entry struct {
	ID          string         `json:"entryId" validate:"required"`
	CreatedAt   time.Time      `json:"createdAt"`
	RecordedOn  string         `json:"date,omitempty" validate:"required"`
	Language    Language       `json:"language"`
	Genre       string         `json:"genre,omitempty"`
	Register    string         `json:"register,omitempty"`
	Style       string         `json:"style,omitempty"`
	Prompt      string         `json:"prompt,omitempty"`
	Context     string         `json:"performanceContext,omitempty"`
	Speaker     string         `json:"speaker,omitempty"`
	Collector   string         `json:"collector,omitempty"`
	Consent     string         `json:"consent,omitempty"`
	Transcript  TranscriptText `json:"transcript"`
	Notes       string         `json:"notes,omitempty"`
	MarkersUsed []string       `json:"markersUsed,omitempty"`
	ProfileID   string         `json:"profileId,omitempty"`
	Audio       AudioInfo      `json:"audio"`
}

// AudioBlob is the raw audio payload attached to an entry.
type AudioBlob struct {
	MimeType string
	Data     []byte
}

// Size returns the payload length in bytes.
func (b *AudioBlob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}
