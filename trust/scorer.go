package trust

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vantaai/trustserv/ai"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/internal"
	"github.com/vantaai/trustserv/metrics"
	"github.com/vantaai/trustserv/patterns"
)

const nsfwPenaltyPerHit = 12
const toxicPenaltyPerHit = 15
const domainPenaltyPerMatch = 12
const highSeverityExtensionPenalty = 35
const standardExtensionPenalty = 20
const brandSpoofPenalty = 25

// classifierThreshold - Verdicts must be strictly more confident than this to count against the content.
const classifierThreshold = 0.6

// blendedFallbackScore - The classifier's side of the average when it fails in blended mode.
const blendedFallbackScore = 85

const DefaultClassifierTimeout = 5 * time.Second

// Analyzer - Anything able to score content.
type Analyzer interface {
	Analyze(ctx context.Context, content string) *AnalysisResult
}

type Config struct {
	Mode              config.ScoringMode
	ClassifierTimeout time.Duration

	// FailSecure - When true, a classifier failure deducts the full score instead of being skipped.
	FailSecure bool
}

func ConfigFromInstance(cnf *config.InstanceConfig) Config {
	return Config{
		Mode:              cnf.ScoringMode,
		ClassifierTimeout: cnf.ClassifierTimeout,
		FailSecure:        cnf.ClassifierFailSecure,
	}
}

// Scorer - Scores content against a fixed set of pattern tables and an optional classifier. Safe for concurrent use.
type Scorer struct {
	// Implements Analyzer

	tables     *patterns.Tables
	classifier ai.ToxicityClassifier
	cnf        Config
}

// NewScorer - Creates a scorer. A nil classifier skips the classifier step entirely; nil tables use the defaults.
func NewScorer(tables *patterns.Tables, classifier ai.ToxicityClassifier, cnf Config) *Scorer {
	if tables == nil {
		tables = patterns.Default()
	}
	if cnf.Mode == "" {
		cnf.Mode = config.ScoringModeAdditive
	}
	if cnf.ClassifierTimeout <= 0 {
		cnf.ClassifierTimeout = DefaultClassifierTimeout
	}
	return &Scorer{
		tables:     tables,
		classifier: classifier,
		cnf:        cnf,
	}
}

func (s *Scorer) Tables() *patterns.Tables {
	return s.tables
}

func (s *Scorer) Mode() config.ScoringMode {
	return s.cnf.Mode
}

// Analyze - Scores the content. Never fails: classifier problems are folded into the result.
func (s *Scorer) Analyze(ctx context.Context, content string) *AnalysisResult {
	findings := s.ruleFindings(strings.ToLower(content))
	ruleDeductions := 0
	for _, f := range findings {
		ruleDeductions += f.Penalty
	}

	var score int
	if s.cnf.Mode == config.ScoringModeBlended {
		mlScore, finding := s.blendedClassifierScore(ctx, content)
		if finding != nil {
			findings = append(findings, *finding)
		}
		score = int(math.Round(float64((100-ruleDeductions)+mlScore) / 2))
	} else {
		deductions := ruleDeductions
		if finding := s.additiveClassifierFinding(ctx, content); finding != nil {
			findings = append(findings, *finding)
			deductions += finding.Penalty
		}
		score = 100 - deductions
	}

	res := &AnalysisResult{
		Score:    internal.Clamp(score, 0, 100),
		Reason:   NoRedFlagsReason,
		Findings: findings,
	}
	res.IsSuspicious = res.Score < SuspicionThreshold
	if len(findings) > 0 {
		details := make([]string, len(findings))
		for i, f := range findings {
			details[i] = f.Detail
			metrics.RecordFinding(string(f.Category))
		}
		res.Reason = strings.Join(details, " + ")
	} else {
		res.Findings = make([]Finding, 0)
	}
	metrics.RecordAnalysis(string(s.cnf.Mode), res.Score, res.IsSuspicious)
	return res
}

func (s *Scorer) ruleFindings(lower string) []Finding {
	findings := make([]Finding, 0)

	if hits := s.tables.NSFW.Matches(lower); len(hits) > 0 {
		findings = append(findings, Finding{
			Category: CategoryNSFW,
			Detail:   "NSFW keywords: " + strings.Join(hits, ", "),
			Penalty:  nsfwPenaltyPerHit * len(hits),
		})
	}

	if hits := s.tables.Toxic.Matches(lower); len(hits) > 0 {
		findings = append(findings, Finding{
			Category: CategoryToxic,
			Detail:   "Toxic language: " + strings.Join(hits, ", "),
			Penalty:  toxicPenaltyPerHit * len(hits),
		})
	}

	if matches := s.tables.Domains.CountMatches(lower); matches > 0 {
		findings = append(findings, Finding{
			Category: CategorySuspiciousDomain,
			Detail:   "Suspicious domains/links",
			Penalty:  domainPenaltyPerMatch * matches,
		})
	}

	for _, ext := range s.tables.Extensions.Matches(lower) {
		if ext.Severity == patterns.SeverityHigh {
			findings = append(findings, Finding{
				Category: CategoryFileType,
				Detail:   "Dangerous file type: " + ext.Suffix,
				Penalty:  highSeverityExtensionPenalty,
			})
		} else {
			findings = append(findings, Finding{
				Category: CategoryFileType,
				Detail:   "Suspicious file type: " + ext.Suffix,
				Penalty:  standardExtensionPenalty,
			})
		}
	}

	if brand, ok := s.tables.Brands.FirstMatch(lower); ok {
		findings = append(findings, Finding{
			Category: CategoryBrandSpoof,
			Detail:   "Spoofed brand phishing attempt: " + brand,
			Penalty:  brandSpoofPenalty,
		})
	}

	return findings
}

func (s *Scorer) additiveClassifierFinding(ctx context.Context, content string) *Finding {
	if s.classifier == nil {
		return nil
	}
	verdict, err := s.classify(ctx, content)
	if err != nil {
		if s.cnf.FailSecure {
			return &Finding{
				Category: CategoryClassifier,
				Detail:   "ML toxicity check failed; failing secure",
				Penalty:  100,
			}
		}
		return &Finding{
			Category: CategoryClassifier,
			Detail:   "ML toxicity check skipped due to error",
			Penalty:  0,
		}
	}
	if !verdict.Toxic || verdict.Score <= classifierThreshold {
		return nil
	}
	return &Finding{
		Category: CategoryClassifier,
		Detail:   fmt.Sprintf("Toxic content flagged by ML (score: %.2f)", verdict.Score),
		Penalty:  int(math.Round(verdict.Score * 100)),
	}
}

// blendedClassifierScore - Returns the classifier's 0-100 score for the blended average, plus the finding to record.
func (s *Scorer) blendedClassifierScore(ctx context.Context, content string) (int, *Finding) {
	if s.classifier == nil {
		return 100, nil
	}
	verdict, err := s.classify(ctx, content)
	if err != nil {
		if s.cnf.FailSecure {
			return 0, &Finding{
				Category: CategoryClassifier,
				Detail:   "ML toxicity check failed; failing secure",
				Penalty:  100,
			}
		}
		return blendedFallbackScore, &Finding{
			Category: CategoryClassifier,
			Detail:   "ML model error - fallback trust score used",
			Penalty:  100 - blendedFallbackScore,
		}
	}
	if !verdict.Toxic {
		return 100, nil
	}
	penalty := int(math.Round(verdict.Score * 100))
	detail := fmt.Sprintf("Mild toxicity flagged (ML score: %.2f)", verdict.Score)
	if penalty >= SuspicionThreshold {
		detail = fmt.Sprintf("Highly toxic (ML score: %.2f)", verdict.Score)
	}
	return 100 - penalty, &Finding{
		Category: CategoryClassifier,
		Detail:   detail,
		Penalty:  penalty,
	}
}
