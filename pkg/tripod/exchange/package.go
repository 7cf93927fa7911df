// Package exchange reads and writes the JSON entry package: one entry plus,
// when it is small enough, its audio as base64.
package exchange

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MarciaSuzuki/Tripod/pkg/models"
	"github.com/go-playground/validator/v10"
)

// DefaultAudioLimit is the largest audio payload embedded in a package.
const DefaultAudioLimit int64 = 20 << 20

var ErrInvalidPackage = errors.New("invalid entry package")

// Package is the on-disk JSON shape.
type Package struct {
	Entry models.Entry `json:"entry" validate:"-"`
	Audio *Audio       `json:"audio,omitempty"`
}

// Audio is an embedded blob. An empty Base64 is a zero-length blob.
type Audio struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType" validate:"required"`
}

// UnknownMIME labels exported audio that was stored without a MIME type.
const UnknownMIME = "application/octet-stream"

var validate = validator.New()

// Export encodes entry and audio as an indented package. Audio larger than
// limit bytes is left out and embedded reports false; a non-positive limit
// uses DefaultAudioLimit. Audio without a MIME type is exported as
// UnknownMIME so that Import accepts it.
func Export(entry models.Entry, audio *models.AudioBlob, limit int64) (data []byte, embedded bool, err error) {
	if limit <= 0 {
		limit = DefaultAudioLimit
	}

	pkg := Package{Entry: entry}
	if audio != nil && audio.Size() <= limit {
		mime := strings.TrimSpace(audio.MimeType)
		if mime == "" {
			mime = UnknownMIME
		}
		pkg.Audio = &Audio{
			Base64:   base64.StdEncoding.EncodeToString(audio.Data),
			MimeType: mime,
		}
		embedded = true
	}

	data, err = json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, false, fmt.Errorf("encode package: %w", err)
	}
	return data, embedded, nil
}

// Import decodes a package. The entry id is required; audio, when present,
// must carry a MIME type and valid base64.
func Import(data []byte) (*models.Entry, *models.AudioBlob, error) {
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	if err := validate.Var(strings.TrimSpace(pkg.Entry.ID), "required"); err != nil {
		return nil, nil, fmt.Errorf("%w: entry id is required", ErrInvalidPackage)
	}
	if err := validate.Struct(pkg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, nil, fmt.Errorf("%w: %s is %s", ErrInvalidPackage, verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	entry := pkg.Entry
	if pkg.Audio == nil {
		return &entry, nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(pkg.Audio.Base64)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: audio: %v", ErrInvalidPackage, err)
	}
	return &entry, &models.AudioBlob{MimeType: pkg.Audio.MimeType, Data: raw}, nil
}

// FileName returns the download name of an entry package.
func FileName(entryID string) string {
	if id := strings.TrimSpace(entryID); id != "" {
		return id + ".json"
	}
	return "entry.json"
}
