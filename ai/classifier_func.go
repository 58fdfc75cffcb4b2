package ai

import "context"

// ClassifierFunc - Adapts an ordinary function to a ToxicityClassifier.
type ClassifierFunc func(ctx context.Context, text string) (*Verdict, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) (*Verdict, error) {
	return f(ctx, text)
}
