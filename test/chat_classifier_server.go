package test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

// ChatClassifierModelName - The only model the mock chat server knows about.
const ChatClassifierModelName = "test/toxicity-classifier"

// MakeChatClassifierServer - Creates a mock OpenAI-compatible chat completions server, rooted at `/v1`. The model is
// only listed after `listCallsBeforeReady` calls to the models endpoint, simulating a model which is still loading.
func MakeChatClassifierServer(t *testing.T, listCallsBeforeReady int32) *httptest.Server {
	listCalls := &atomic.Int32{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/models":
			models := goopenai.ModelsList{Models: []goopenai.Model{}}
			if listCalls.Add(1) > listCallsBeforeReady {
				models.Models = append(models.Models, goopenai.Model{ID: ChatClassifierModelName, Object: "model"})
			}
			b, err := json.Marshal(models)
			assert.NoError(t, err)
			_, _ = w.Write(b)
		case "/v1/chat/completions":
			b, err := io.ReadAll(r.Body)
			if err != nil {
				t.Fatal(err) // "should never happen"
			}
			req := string(b)
			assert.Equal(t, ChatClassifierModelName, gjson.Get(req, "model").String())
			input := gjson.Get(req, `messages.#(role=="user").content`).String()

			var reply string
			if strings.Contains(input, KeywordMildlyToxic) {
				reply = fmt.Sprintf(`{"toxic": true, "score": %.2f}`, MildlyToxicScore)
			} else if strings.Contains(input, KeywordToxic) {
				// Some models insist on code fences
				reply = fmt.Sprintf("```json\n{\"toxic\": true, \"score\": %.2f}\n```", ToxicScore)
			} else if strings.Contains(input, KeywordNeutral) {
				reply = `{"toxic": false, "score": 0.03}`
			} else if strings.Contains(input, KeywordGarbage) {
				reply = "I'd rather not say."
			} else if strings.Contains(input, KeywordIntentionalFail) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"code": "X-ERROR","message":"Intentional fail","param":"x","type":"x"}}`))
				return
			} else {
				t.Errorf("Unexpected request: %s", req)
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			res := goopenai.ChatCompletionResponse{
				ID:     "1",
				Object: "chat.completion",
				Model:  ChatClassifierModelName,
				Choices: []goopenai.ChatCompletionChoice{{
					Index: 0,
					Message: goopenai.ChatCompletionMessage{
						Role:    goopenai.ChatMessageRoleAssistant,
						Content: reply,
					},
					FinishReason: goopenai.FinishReasonStop,
				}},
			}
			b, err = json.Marshal(res)
			assert.NoError(t, err)
			_, _ = w.Write(b)
		default:
			t.Errorf("Unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}
