package config

import "fmt"

// ScoringMode - How rule-based deductions and the classifier verdict are combined.
type ScoringMode string // Implements envconfig.Decoder

// ScoringModeAdditive - All penalties are deducted from 100 and the result is clamped.
const ScoringModeAdditive ScoringMode = "additive"

// ScoringModeBlended - Legacy mode. The rule score and the classifier score are averaged.
const ScoringModeBlended ScoringMode = "blended"

func (m *ScoringMode) Decode(value string) error {
	switch value {
	case "", string(ScoringModeAdditive):
		*m = ScoringModeAdditive
		return nil
	case string(ScoringModeBlended):
		*m = ScoringModeBlended
		return nil
	}

	return fmt.Errorf("unsupported scoring mode '%s'", value)
}

// ClassifierProvider - Which toxicity classifier backs the scorer.
type ClassifierProvider string // Implements envconfig.Decoder

const ClassifierProviderNone ClassifierProvider = "none"
const ClassifierProviderOpenAIOmni ClassifierProvider = "openai_omni"
const ClassifierProviderChat ClassifierProvider = "chat"

func (p *ClassifierProvider) Decode(value string) error {
	switch value {
	case "", string(ClassifierProviderNone):
		*p = ClassifierProviderNone
		return nil
	case string(ClassifierProviderOpenAIOmni):
		*p = ClassifierProviderOpenAIOmni
		return nil
	case string(ClassifierProviderChat):
		*p = ClassifierProviderChat
		return nil
	}

	return fmt.Errorf("unsupported classifier provider '%s'", value)
}
