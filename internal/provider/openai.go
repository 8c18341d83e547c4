package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/petasbytes/aichat/memory"
)

const openAIEndpoint = "chat/completions"

// openAIBaseURL turns the configured full endpoint into the SDK base URL.
func openAIBaseURL(full string) string {
	if base, ok := strings.CutSuffix(full, openAIEndpoint); ok {
		return base
	}
	return strings.TrimSuffix(full, "/") + "/"
}

func completeOpenAI(ctx context.Context, hc *http.Client, req Request) (string, error) {
	client := openai.NewClient(
		option.WithAPIKey(req.Credential),
		option.WithBaseURL(openAIBaseURL(req.URL)),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
	)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if m.Role == memory.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: msgs,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Status: apiErr.StatusCode, Err: err}
		}
		return "", &UpstreamError{Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}
