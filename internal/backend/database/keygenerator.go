package database

import (
	"fmt"

	"github.com/google/uuid"
)

func generateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// IsValidID reports whether id looks like an id produced by this package
func IsValidID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.Version() == 4 && len(id) == 36
}
