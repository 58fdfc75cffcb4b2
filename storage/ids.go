package storage

import (
	"github.com/segmentio/ksuid"
)

// NextId - A new, roughly time-ordered, analysis ID.
func NextId() string {
	return ksuid.New().String()
}

// IsValidId - True if the ID could have come from NextId. Lets lookups skip the database for garbage input.
func IsValidId(id string) bool {
	_, err := ksuid.Parse(id)
	return err == nil
}

