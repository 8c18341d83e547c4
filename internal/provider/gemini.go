package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/petasbytes/aichat/memory"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 2048

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

func geminiPayload(req Request) geminiRequest {
	body := geminiRequest{
		Contents: make([]geminiContent, 0, len(req.Messages)),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	for _, m := range req.Messages {
		role := "user"
		if m.Role == memory.RoleAssistant {
			role = "model"
		}
		body.Contents = append(body.Contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Role: "system", Parts: []geminiPart{{Text: req.System}}}
	}
	return body
}

func completeGemini(ctx context.Context, hc *http.Client, req Request) (string, error) {
	b, err := json.Marshal(geminiPayload(req))
	if err != nil {
		return "", &UpstreamError{Err: fmt.Errorf("marshal request: %w", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(b))
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)

	resp, err := hc.Do(httpReq)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(snippet))}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
