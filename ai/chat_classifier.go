package ai

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/internal"
)

// ErrUnparseableVerdict - Returned when a chat model replies with something other than the requested JSON object.
var ErrUnparseableVerdict = errors.New("classifier reply is not a verdict")

const chatClassifierSystemPrompt = `
You are a content moderation classifier. Decide whether the user's message is toxic: abusive, harassing, hateful,
threatening, or sexually explicit. Reply with a single JSON object and nothing else, in the form
{"toxic": <true|false>, "score": <number between 0 and 1>} where score is your confidence in the toxic label.
`

// ChatClassifier - Classifies text using an OpenAI-compatible chat completions endpoint, typically a locally hosted model.
type ChatClassifier struct {
	// Implements ToxicityClassifier

	client    *goopenai.Client
	modelName string
}

func NewChatClassifier(cnf *config.InstanceConfig) (*ChatClassifier, error) {
	if len(cnf.ChatClassifierApiUrl) == 0 {
		return nil, errors.New("chat classifier api url not set")
	}
	if len(cnf.ChatClassifierModelName) == 0 {
		return nil, errors.New("chat classifier model name not set")
	}
	clientConfig := goopenai.DefaultConfig(cnf.ChatClassifierApiKey)
	clientConfig.BaseURL = strings.TrimSuffix(cnf.ChatClassifierApiUrl, "/")
	return &ChatClassifier{
		client:    goopenai.NewClientWithConfig(clientConfig),
		modelName: cnf.ChatClassifierModelName,
	}, nil
}

// WaitForModel - Blocks until the endpoint lists the configured model, or the context is done. Local model servers
// commonly accept connections well before the model is loaded.
func (c *ChatClassifier) WaitForModel(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		models, err := c.client.ListModels(ctx)
		if err == nil {
			if slices.ContainsFunc(models.Models, func(m goopenai.Model) bool { return m.ID == c.modelName }) {
				return nil
			}
			err = fmt.Errorf("model %s not listed yet", c.modelName)
		}
		logrus.WithField("provider", "chat").WithError(err).Debug("Waiting for classifier model")

		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

func (c *ChatClassifier) Classify(ctx context.Context, text string) (*Verdict, error) {
	res, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.modelName,
		Temperature: 0,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: strings.TrimSpace(chatClassifierSystemPrompt),
			},
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return nil, errors.Join(ErrUnparseableVerdict, errors.New("no choices returned"))
	}

	verdict, err := parseChatVerdict(res.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"provider": "chat",
		"model":    c.modelName,
		"toxic":    verdict.Toxic,
		"score":    verdict.Score,
	}).Debug("Classification result")
	return verdict, nil
}

func parseChatVerdict(reply string) (*Verdict, error) {
	// Models occasionally wrap the object in prose or a code fence despite the response format
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return nil, ErrUnparseableVerdict
	}
	raw := reply[start : end+1]
	if !gjson.Valid(raw) {
		return nil, ErrUnparseableVerdict
	}

	toxic := gjson.Get(raw, "toxic")
	score := gjson.Get(raw, "score")
	if !toxic.IsBool() || score.Type != gjson.Number {
		return nil, ErrUnparseableVerdict
	}
	return &Verdict{
		Toxic: toxic.Bool(),
		Score: internal.Clamp(score.Float(), 0, 1),
	}, nil
}
