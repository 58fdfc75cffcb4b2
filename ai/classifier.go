package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/vantaai/trustserv/config"
)

// ErrClassifierNotReady - Returned while a classifier is still loading.
var ErrClassifierNotReady = errors.New("toxicity classifier not ready")

// Verdict - The classifier's opinion of a piece of text. Score is the confidence of the dominant toxic label, in [0,1].
type Verdict struct {
	Toxic bool    `json:"toxic"`
	Score float64 `json:"score"`
}

// ToxicityClassifier - An external (usually remote) toxicity model. Implementations may fail for any reason and
// callers are expected to recover.
type ToxicityClassifier interface {
	Classify(ctx context.Context, text string) (*Verdict, error)
}

// NewClassifier - Creates the classifier selected by the instance config. Returns a nil classifier when none is
// configured.
func NewClassifier(cnf *config.InstanceConfig) (ToxicityClassifier, error) {
	switch cnf.ClassifierProvider {
	case config.ClassifierProviderNone, "":
		return nil, nil
	case config.ClassifierProviderOpenAIOmni:
		return NewOpenAIOmniModeration(cnf)
	case config.ClassifierProviderChat:
		lazy := NewLazyClassifier(func(ctx context.Context) (ToxicityClassifier, error) {
			c, err := NewChatClassifier(cnf)
			if err != nil {
				return nil, err
			}
			if err = c.WaitForModel(ctx); err != nil {
				return nil, err
			}
			return c, nil
		})
		lazy.WarmInBackground()
		return lazy, nil
	}
	return nil, fmt.Errorf("unsupported classifier provider '%s'", cnf.ClassifierProvider)
}
