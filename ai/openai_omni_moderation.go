package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/config"
)

type OpenAIOmniModeration struct {
	// Implements ToxicityClassifier

	client openai.Client
}

func NewOpenAIOmniModeration(cnf *config.InstanceConfig, additionalClientOptions ...option.RequestOption) (*OpenAIOmniModeration, error) {
	apiKey := cnf.OpenAIApiKey
	if len(apiKey) == 0 {
		return nil, errors.New("api key not set")
	}
	// The scorer bounds the call with its own timeout, so retries would only eat into that budget
	options := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, additionalClientOptions...)
	client := openai.NewClient(options...)
	return &OpenAIOmniModeration{
		client: client,
	}, nil
}

func (m *OpenAIOmniModeration) Classify(ctx context.Context, text string) (*Verdict, error) {
	res, err := m.client.Moderations.New(ctx, openai.ModerationNewParams{
		Model: openai.ModerationModelOmniModerationLatest,
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, err
	}

	verdict := &Verdict{}
	for _, r := range res.Results {
		if !r.Flagged {
			continue
		}
		verdict.Toxic = true
		verdict.Score = max(verdict.Score, dominantFlaggedScore(r))
	}
	// Note: we don't want to log message contents in production
	logrus.WithFields(logrus.Fields{
		"provider": "openai_omni",
		"toxic":    verdict.Toxic,
		"score":    verdict.Score,
	}).Debug("Moderation result")
	return verdict, nil
}

// dominantFlaggedScore - Returns the highest score among the flagged categories. If the result is flagged without
// any specific category, the highest score overall is used instead.
func dominantFlaggedScore(r openai.Moderation) float64 {
	categories := []struct {
		flagged bool
		score   float64
	}{
		{r.Categories.Harassment, r.CategoryScores.Harassment},
		{r.Categories.HarassmentThreatening, r.CategoryScores.HarassmentThreatening},
		{r.Categories.Hate, r.CategoryScores.Hate},
		{r.Categories.HateThreatening, r.CategoryScores.HateThreatening},
		{r.Categories.Illicit, r.CategoryScores.Illicit},
		{r.Categories.IllicitViolent, r.CategoryScores.IllicitViolent},
		{r.Categories.SelfHarm, r.CategoryScores.SelfHarm},
		{r.Categories.SelfHarmInstructions, r.CategoryScores.SelfHarmInstructions},
		{r.Categories.SelfHarmIntent, r.CategoryScores.SelfHarmIntent},
		{r.Categories.Sexual, r.CategoryScores.Sexual},
		{r.Categories.SexualMinors, r.CategoryScores.SexualMinors},
		{r.Categories.Violence, r.CategoryScores.Violence},
		{r.Categories.ViolenceGraphic, r.CategoryScores.ViolenceGraphic},
	}

	flaggedMax, overallMax := 0.0, 0.0
	anyFlagged := false
	for _, c := range categories {
		overallMax = max(overallMax, c.score)
		if c.flagged {
			anyFlagged = true
			flaggedMax = max(flaggedMax, c.score)
		}
	}
	if anyFlagged {
		return flaggedMax
	}
	return overallMax
}
