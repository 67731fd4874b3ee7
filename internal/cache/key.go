package cache

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/careerguide/careerguide/internal/content"
)

// ErrInvalidEntity is returned when an entity name cannot be turned into a cache key
var ErrInvalidEntity = errors.New("invalid entity name")

// NormalizeEntity converts an entity name into a filesystem-safe token.
// The name is trimmed and lowercased, whitespace runs collapse to a single
// underscore and characters outside letters, digits and ".+#-_" become underscores.
func NormalizeEntity(entity string) (string, error) {
	fields := strings.Fields(strings.ToLower(entity))
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidEntity)
	}

	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte('_')
		}
		for _, r := range field {
			switch {
			case unicode.IsLetter(r), unicode.IsDigit(r):
				b.WriteRune(r)
			case strings.ContainsRune(".+#-_", r):
				b.WriteRune(r)
			default:
				b.WriteByte('_')
			}
		}
	}

	token := b.String()
	if strings.Trim(token, ".") == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntity, entity)
	}
	return token, nil
}

// GenerateKey returns the composite key for an (entity, purpose) pair
func GenerateKey(entity string, purpose content.Purpose) (string, error) {
	token, err := NormalizeEntity(entity)
	if err != nil {
		return "", err
	}
	return token + "/" + purpose.String(), nil
}
