package tripod

import "errors"

var (
	// ErrNothingToExport is returned when a transcript yields no sentences.
	ErrNothingToExport = errors.New("nothing to export")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrUnknownProfile  = errors.New("unknown profile")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// PackageExport is a JSON entry package ready to be written to disk.
type PackageExport struct {
	FileName      string // "<entry id>.json"
	Data          []byte
	AudioEmbedded bool // false when the entry has no audio or it was over the size limit
}
