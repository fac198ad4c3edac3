package id

import (
	"strings"

	"github.com/google/uuid"
)

// NewID32 returns a random (v4) id as exactly 32 lowercase hex characters,
// no separators or prefixes. Used for public form references.
func NewID32() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
