package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/aichat/internal/config"
	"github.com/petasbytes/aichat/internal/provider"
	"github.com/petasbytes/aichat/internal/runner"
	"github.com/petasbytes/aichat/internal/telemetry"
	"github.com/petasbytes/aichat/memory"
)

type capture struct {
	method string
	url    string
	body   []byte
}

// fakeTransport answers every request with a canned response.
type fakeTransport struct {
	respStatus int
	respBody   []byte
	captured   *capture
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.captured != nil {
		f.captured.method = req.Method
		f.captured.url = req.URL.String()
		if req.Body != nil {
			b, _ := io.ReadAll(req.Body)
			f.captured.body = b
		}
	}
	return &http.Response{
		StatusCode: f.respStatus,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Request:    req,
	}, nil
}

func routerWith(rt http.RoundTripper) *provider.Router {
	r := provider.NewRouter()
	r.Transport = rt
	return r
}

func turn() runner.Turn {
	return runner.Turn{
		Group: "g1",
		Model: config.Resolved{
			ID:       "gemini.gemini-pro",
			Provider: "gemini",
			Model:    "gemini-pro",
			FullURL:  "https://gemini.example/v1beta/models/gemini-pro:generateContent",
		},
		Credential: "k0",
		System:     "You are a helpful assistant.",
		History: []memory.Message{
			{Role: memory.RoleUser, Content: "hello there"},
		},
	}
}

func readEventLines(t *testing.T, dir string) []map[string]any {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()
	var out []map[string]any
	s := bufio.NewScanner(f)
	for s.Scan() {
		var m map[string]any
		if err := json.Unmarshal(s.Bytes(), &m); err != nil {
			t.Fatalf("bad line: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func TestTurn_Request_InfersKindAndCarriesSettings(t *testing.T) {
	tr := turn()
	temp := 0.2
	tr.Temperature = &temp
	tr.Model.ProxyURL = "http://proxy:1"

	req := tr.Request()
	if req.Kind != provider.KindGemini || req.URL != tr.Model.FullURL || req.Model != "gemini-pro" {
		t.Fatalf("req=%+v", req)
	}
	if req.Credential != "k0" || req.ProxyURL != "http://proxy:1" || *req.Temperature != 0.2 || req.MaxTokens != nil {
		t.Fatalf("req=%+v", req)
	}
}

func TestRunTurn_Success_SendsTranscript(t *testing.T) {
	capReq := &capture{}
	fake := &fakeTransport{respStatus: 200, respBody: []byte(`{"candidates":[{"content":{"parts":[{"text":"hi!"}]}}]}`), captured: capReq}
	r := runner.New(routerWith(fake), nil)

	text, err := r.RunTurn(context.Background(), turn())
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if text != "hi!" {
		t.Fatalf("text=%q", text)
	}
	if capReq.method != http.MethodPost || !strings.Contains(capReq.url, "generateContent") {
		t.Fatalf("captured %s %s", capReq.method, capReq.url)
	}
	if !bytes.Contains(capReq.body, []byte("hello there")) {
		t.Fatalf("transcript not sent: %s", capReq.body)
	}
}

func TestRunTurn_UpstreamFailure(t *testing.T) {
	fake := &fakeTransport{respStatus: 401, respBody: []byte(`{"error":"bad key"}`)}
	r := runner.New(routerWith(fake), nil)

	_, err := r.RunTurn(context.Background(), turn())
	var ue *provider.UpstreamError
	if !errors.As(err, &ue) || ue.Status != 401 {
		t.Fatalf("err=%v", err)
	}
}

func TestRunTurn_EmitsEventsWithTurnID_NoText(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AICHAT_ARTIFACTS_DIR", dir)
	t.Setenv("AICHAT_OBSERVE_JSON", "1")
	t.Setenv("AICHAT_LOCAL_FEATURES", "1")

	fake := &fakeTransport{respStatus: 200, respBody: []byte(`{"candidates":[{"content":{"parts":[{"text":"secret reply"}]}}]}`)}
	r := runner.New(routerWith(fake), nil)

	ctx := telemetry.WithTurnID(context.Background(), "turn-abc")
	if _, err := r.RunTurn(ctx, turn()); err != nil {
		t.Fatalf("RunTurn: %v", err)
	}

	events := readEventLines(t, dir)
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e["event"].(string))
		if e["turn_id"] != "turn-abc" {
			t.Fatalf("turn id not propagated: %#v", e)
		}
	}
	if strings.Join(names, ",") != "turn_prepared,local_features,turn_completed" {
		t.Fatalf("events=%v", names)
	}
	raw, _ := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if bytes.Contains(raw, []byte("hello there")) || bytes.Contains(raw, []byte("secret reply")) {
		t.Fatal("message text leaked into telemetry")
	}
}
