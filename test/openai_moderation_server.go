package test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

// Dev note: Usually we'd write a dedicated test for utilities like this, however the entire functionality is covered by
// other tests using it, so it should be fine.

// KeywordToxic - Used by tests to always flag a message as toxic with high confidence.
const KeywordToxic = "TS_TOXIC"

// KeywordMildlyToxic - Used by tests to flag a message as toxic, but below the penalty threshold.
const KeywordMildlyToxic = "TS_MILDLY_TOXIC"

// KeywordNeutral - Used by tests to always flag a message as neutral ("not toxic").
const KeywordNeutral = "TS_NEUTRAL"

// KeywordIntentionalFail - Used by tests to always cause a 500 Internal Server Error response.
const KeywordIntentionalFail = "TS_INTENTIONAL_FAIL"

// KeywordGarbage - Used by tests to make a chat model reply with something that isn't a verdict.
const KeywordGarbage = "TS_GARBAGE"

// ToxicScore - The confidence returned for KeywordToxic.
const ToxicScore = 0.9

// MildlyToxicScore - The confidence returned for KeywordMildlyToxic.
const MildlyToxicScore = 0.5

// MakeOpenAIModerationServer - Creates a mock OpenAI Moderation API server for use in tests.
func MakeOpenAIModerationServer(t *testing.T, apiKey string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+apiKey, r.Header.Get("Authorization"))

		// Dev note: this HTTP handler is sensitive to changes in the OpenAI library. If it makes additional
		// calls ahead of the moderation request or changes what it supplies as a request body, then this
		// will suddenly start failing.

		assert.Equal(t, "/moderations", r.URL.Path) // we only handle Moderations API stuff here

		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatal(err) // "should never happen"
		}
		req := string(b)
		assert.Equal(t, string(openai.ModerationModelOmniModerationLatest), gjson.Get(req, "model").String())
		input := gjson.Get(req, "input").String()

		if strings.Contains(input, KeywordMildlyToxic) {
			writeModerationResult(t, w, true, MildlyToxicScore)
		} else if strings.Contains(input, KeywordToxic) {
			writeModerationResult(t, w, true, ToxicScore)
		} else if strings.Contains(input, KeywordNeutral) {
			writeModerationResult(t, w, false, 0.01)
		} else if strings.Contains(input, KeywordIntentionalFail) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			// This is a mock OpenAI API error
			_, _ = w.Write([]byte(`{"error":{"code": "X-ERROR","message":"Intentional fail","param":"x","type":"x"}}`))
		} else {
			t.Errorf("Unexpected request: %s", req)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

func writeModerationResult(t *testing.T, w http.ResponseWriter, flagged bool, harassmentScore float64) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	res := openai.ModerationNewResponse{
		ID:    "1",
		Model: openai.ModerationModelOmniModerationLatest,
		Results: []openai.Moderation{{
			Flagged: flagged,
			Categories: openai.ModerationCategories{
				Harassment: flagged,
			},
			CategoryScores: openai.ModerationCategoryScores{
				Harassment: harassmentScore,
				// Unflagged categories never contribute to the score
				Violence: 0.99,
			},
			CategoryAppliedInputTypes: openai.ModerationCategoryAppliedInputTypes{
				Harassment: []string{"text"},
			},
		}},
	}
	b, err := json.Marshal(res)
	assert.NoError(t, err)
	_, _ = w.Write(b)
}
