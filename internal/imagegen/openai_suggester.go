package imagegen

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAISuggester serves pose and retouch suggestions from an OpenAI chat
// model using the server's own key. The per-user credential is not needed.
type OpenAISuggester struct {
	client *openai.Client
	model  string
}

// NewOpenAISuggester creates a suggester. Extra options are appended after
// the API key, which lets tests point the client at a local server.
func NewOpenAISuggester(apiKey, model string, opts ...option.RequestOption) *OpenAISuggester {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAISuggester{
		client: &client,
		model:  model,
	}
}

// SuggestPose implements Suggester.
func (s *OpenAISuggester) SuggestPose(ctx context.Context, scene, _ string) (string, error) {
	text, err := s.complete(ctx, "openai.suggest_pose", buildPoseSuggestionPrompt(scene))
	if err != nil {
		return "", err
	}
	return parsePoseSuggestion(text), nil
}

// SuggestRetouch implements Suggester.
func (s *OpenAISuggester) SuggestRetouch(ctx context.Context, scene, _ string) ([]string, error) {
	text, err := s.complete(ctx, "openai.suggest_retouch", buildRetouchSuggestionPrompt(scene))
	if err != nil {
		return nil, err
	}
	return parseRetouchSuggestions(text), nil
}

func (s *OpenAISuggester) complete(ctx context.Context, op, prompt string) (string, error) {
	span := sentry.StartSpan(ctx, op)
	span.SetTag("model", s.model)
	defer span.Finish()

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}
