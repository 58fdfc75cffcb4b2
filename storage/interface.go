package storage

import (
	"context"
	"time"
)

// StoredAnalysis - A persisted analysis. The analysed content itself is never stored, only its digest.
type StoredAnalysis struct {
	Id            string    `json:"id"`
	ContentDigest string    `json:"content_digest"`
	Source        string    `json:"source"`
	Score         int       `json:"score"`
	IsSuspicious  bool      `json:"is_suspicious"`
	Reason        string    `json:"reason"`
	Categories    []string  `json:"categories"` // finding categories, in reason order
	CreatedAt     time.Time `json:"created_at"`
}

type PersistentStorage interface {
	Close() error

	InsertAnalysis(ctx context.Context, analysis *StoredAnalysis) error
	// GetAnalysis - returns the analysis, or nil if it doesn't exist.
	GetAnalysis(ctx context.Context, id string) (*StoredAnalysis, error)
	// DeleteAnalysesBefore - deletes analyses created before the given time, returning the number deleted.
	DeleteAnalysesBefore(ctx context.Context, before time.Time) (int64, error)
}
