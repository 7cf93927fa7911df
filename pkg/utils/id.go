package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultEntryPrefix starts every generated entry identifier.
const DefaultEntryPrefix = "LA"

// NewEntryID returns "<prefix>-<unix ms>-<8 hex>". The hex suffix comes
// from a random UUID.
func NewEntryID(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultEntryPrefix
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix)
}
