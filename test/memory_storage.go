package test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vantaai/trustserv/storage"
)

var SimulatedError = errors.New("simulated error")

// ErrorAnalysisId - Looking up this analysis ID always returns SimulatedError.
const ErrorAnalysisId = "0ujsswThIGTUYm2K8FjOOfXtY1K"

// ErrorSource - Inserting an analysis with this source always returns SimulatedError.
const ErrorSource = "simulated_error"

type MemoryStorage struct {
	// Implements storage.PersistentStorage

	t        *testing.T
	lock     sync.Mutex
	analyses map[string]*storage.StoredAnalysis
}

func NewMemoryStorage(t *testing.T) *MemoryStorage {
	return &MemoryStorage{
		t:        t,
		analyses: make(map[string]*storage.StoredAnalysis),
	}
}

func (m *MemoryStorage) Close() error {
	// no-op
	return nil
}

func (m *MemoryStorage) InsertAnalysis(ctx context.Context, analysis *storage.StoredAnalysis) error {
	assert.NotNil(m.t, ctx, "context is required")
	assert.NotEmpty(m.t, analysis.Id, "analysis ID is required")
	assert.Len(m.t, analysis.ContentDigest, 64, "content digest must be a BLAKE2b-256 hex string")

	if analysis.Source == ErrorSource {
		return SimulatedError
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.analyses[analysis.Id]; ok {
		return errors.New("duplicate analysis ID")
	}
	m.analyses[analysis.Id] = analysis
	return nil
}

func (m *MemoryStorage) GetAnalysis(ctx context.Context, id string) (*storage.StoredAnalysis, error) {
	assert.NotNil(m.t, ctx, "context is required")

	if id == ErrorAnalysisId {
		return nil, SimulatedError
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	return m.analyses[id], nil
}

func (m *MemoryStorage) DeleteAnalysesBefore(ctx context.Context, before time.Time) (int64, error) {
	assert.NotNil(m.t, ctx, "context is required")

	m.lock.Lock()
	defer m.lock.Unlock()
	deleted := int64(0)
	for id, analysis := range m.analyses {
		if analysis.CreatedAt.Before(before) {
			delete(m.analyses, id)
			deleted++
		}
	}
	return deleted, nil
}

// Count - The number of stored analyses.
func (m *MemoryStorage) Count() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.analyses)
}
