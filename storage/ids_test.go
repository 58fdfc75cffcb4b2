package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextIdIsUnique(t *testing.T) {
	t.Parallel()

	numIds := 100000
	seen := make(map[string]bool, numIds)
	for i := range numIds {
		id := NextId()
		if seen[id] {
			t.Errorf("ID %s is repeated on loop %d", id, i)
		}
		seen[id] = true
	}
}

func TestIsValidId(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidId(NextId()))
	assert.False(t, IsValidId(""))
	assert.False(t, IsValidId("missing"))
	assert.False(t, IsValidId("../../etc/passwd"))
}
