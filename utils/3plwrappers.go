package utils

import (
	"strings"

	"github.com/google/uuid"
)

func GetUUID() string {
	return uuid.New().String()
}

// GenerateID returns a short prefixed identifier such as "tt-1a2b3c4d".
func GenerateID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
