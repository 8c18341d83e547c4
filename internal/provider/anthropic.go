package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/aichat/memory"
)

const (
	anthropicEndpoint = "v1/messages"

	// DefaultAnthropicMaxTokens is sent when no max_tokens is set; the API requires one.
	DefaultAnthropicMaxTokens = 1024
)

func anthropicBaseURL(full string) string {
	if base, ok := strings.CutSuffix(full, anthropicEndpoint); ok {
		return base
	}
	return strings.TrimSuffix(full, "/") + "/"
}

func completeAnthropic(ctx context.Context, hc *http.Client, req Request) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(req.Credential),
		option.WithBaseURL(anthropicBaseURL(req.URL)),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
	)

	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == memory.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := int64(DefaultAnthropicMaxTokens)
	if req.MaxTokens != nil {
		maxTokens = int64(*req.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Status: apiErr.StatusCode, Err: err}
		}
		return "", &UpstreamError{Err: err}
	}

	var text []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			text = append(text, tb.Text)
		}
	}
	if len(text) == 0 {
		return "", ErrEmptyReply
	}
	return strings.Join(text, "\n"), nil
}
