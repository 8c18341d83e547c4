package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/petasbytes/aichat/internal/apperr"
	"github.com/petasbytes/aichat/internal/provider"
	"github.com/petasbytes/aichat/memory"
)

type captured struct {
	path   string
	auth   string
	apiKey string
	body   map[string]any
}

// upstream serves one canned response and records the request.
func upstream(t *testing.T, status int, resp string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		c.apiKey = r.Header.Get("X-Api-Key")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &c.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func ptr[T any](v T) *T { return &v }

func transcript() []memory.Message {
	return []memory.Message{
		{Role: memory.RoleUser, Content: "hi"},
		{Role: memory.RoleAssistant, Content: "hello"},
		{Role: memory.RoleUser, Content: "how are you?"},
	}
}

const openAIOK = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"fine, thanks"}}]}`

func TestRouter_OpenAI(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, openAIOK)

	text, err := provider.NewRouter().Complete(context.Background(), provider.Request{
		Kind:        provider.KindOpenAI,
		URL:         srv.URL + "/v1/chat/completions",
		Credential:  "sk-test",
		Model:       "gpt-test",
		System:      "be brief",
		Messages:    transcript(),
		Temperature: ptr(0.5),
		MaxTokens:   ptr(64),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "fine, thanks" {
		t.Fatalf("text=%q", text)
	}
	if got.path != "/v1/chat/completions" || got.auth != "Bearer sk-test" {
		t.Fatalf("path=%q auth=%q", got.path, got.auth)
	}
	msgs, _ := got.body["messages"].([]any)
	if len(msgs) != 4 || got.body["model"] != "gpt-test" || got.body["temperature"] != 0.5 || got.body["max_tokens"] != float64(64) {
		t.Fatalf("unexpected payload: %#v", got.body)
	}
	if first := msgs[0].(map[string]any); first["role"] != "system" {
		t.Fatalf("system prompt must lead: %#v", first)
	}
}

func TestRouter_OpenAI_StatusClassified(t *testing.T) {
	srv, _ := upstream(t, http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`)

	_, err := provider.NewRouter().Complete(context.Background(), provider.Request{
		Kind: provider.KindOpenAI, URL: srv.URL + "/v1/chat/completions", Credential: "k", Model: "m", Messages: transcript(),
	})
	var ue *provider.UpstreamError
	if !errors.As(err, &ue) || ue.Status != http.StatusTooManyRequests {
		t.Fatalf("err=%v", err)
	}
}

func TestRouter_OpenAI_EmptyReply(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	_, err := provider.NewRouter().Complete(context.Background(), provider.Request{
		URL: srv.URL + "/v1/chat/completions", Credential: "k", Model: "m", Messages: transcript(),
	})
	if !errors.Is(err, provider.ErrEmptyReply) {
		t.Fatalf("err=%v want ErrEmptyReply", err)
	}
}

func TestRouter_Anthropic(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[{"type":"text","text":"purr"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":1}}`)

	text, err := provider.NewRouter().Complete(context.Background(), provider.Request{
		Kind:       provider.KindAnthropic,
		URL:        srv.URL + "/v1/messages",
		Credential: "ak-test",
		Model:      "claude-test",
		System:     "be a cat",
		Messages:   transcript(),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "purr" || got.path != "/v1/messages" || got.apiKey != "ak-test" {
		t.Fatalf("text=%q path=%q key=%q", text, got.path, got.apiKey)
	}
	if got.body["max_tokens"] != float64(provider.DefaultAnthropicMaxTokens) {
		t.Fatalf("max_tokens=%v", got.body["max_tokens"])
	}
	if sys, _ := got.body["system"].([]any); len(sys) != 1 {
		t.Fatalf("system=%#v", got.body["system"])
	}
}

func TestRouter_Gemini(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"bonjour"}]}}]}`)

	text, err := provider.NewRouter().Complete(context.Background(), provider.Request{
		Kind:        provider.KindGemini,
		URL:         srv.URL + "/v1beta/models/gemini-pro:generateContent",
		Credential:  "g-key",
		System:      "speak french",
		Messages:    transcript(),
		Temperature: ptr(1.0),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "bonjour" || got.auth != "Bearer g-key" {
		t.Fatalf("text=%q auth=%q", text, got.auth)
	}
	contents, _ := got.body["contents"].([]any)
	if len(contents) != 3 || contents[1].(map[string]any)["role"] != "model" {
		t.Fatalf("contents=%#v", got.body["contents"])
	}
	gen := got.body["generationConfig"].(map[string]any)
	if gen["temperature"] != 1.0 {
		t.Fatalf("generationConfig=%#v", gen)
	}
	if _, ok := gen["maxOutputTokens"]; ok {
		t.Fatal("unset max tokens must be omitted")
	}
	if si := got.body["systemInstruction"].(map[string]any); si["role"] != "system" {
		t.Fatalf("systemInstruction=%#v", si)
	}
}

func TestRouter_Gemini_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"status", http.StatusForbidden, `{"error":"nope"}`, func(err error) bool {
			var ue *provider.UpstreamError
			return errors.As(err, &ue) && ue.Status == http.StatusForbidden
		}},
		{"empty", http.StatusOK, `{"candidates":[]}`, func(err error) bool { return errors.Is(err, provider.ErrEmptyReply) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := upstream(t, tt.status, tt.body)
			_, err := provider.NewRouter().Complete(context.Background(), provider.Request{
				Kind: provider.KindGemini, URL: srv.URL, Credential: "k", Messages: transcript(),
			})
			if !tt.check(err) {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestRouter_TransportFailureIsStatusZero(t *testing.T) {
	r := provider.NewRouter()
	r.Transport = failingTransport{}
	for _, kind := range []provider.Kind{provider.KindOpenAI, provider.KindAnthropic, provider.KindGemini} {
		_, err := r.Complete(context.Background(), provider.Request{
			Kind: kind, URL: "http://upstream.invalid/v1/chat/completions", Credential: "k", Model: "m", Messages: transcript(),
		})
		var ue *provider.UpstreamError
		if !errors.As(err, &ue) || ue.Status != 0 || !apperr.Is(err, apperr.KindUpstreamFailure) {
			t.Fatalf("%s: err=%v", kind, err)
		}
	}
}

func TestRouter_InvalidProxy(t *testing.T) {
	_, err := provider.NewRouter().Complete(context.Background(), provider.Request{
		URL: "http://x/v1/chat/completions", ProxyURL: "://bad", Messages: transcript(),
	})
	var ue *provider.UpstreamError
	if !errors.As(err, &ue) || ue.Status != 0 {
		t.Fatalf("err=%v", err)
	}
}
