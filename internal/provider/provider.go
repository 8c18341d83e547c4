// Package provider sends a transcript to an upstream chat model and returns
// the reply text.
//
// Each provider kind translates the same Request into its own wire shape.
// Callers never see provider payloads; failures come back as *UpstreamError
// classified by HTTP status.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/petasbytes/aichat/memory"
)

// Kind selects the request/response translation.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
)

// KindFor returns the configured kind, or infers one from the provider name.
func KindFor(providerName, configured string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(configured))) {
	case KindOpenAI:
		return KindOpenAI
	case KindAnthropic:
		return KindAnthropic
	case KindGemini:
		return KindGemini
	}
	name := strings.ToLower(providerName)
	switch {
	case strings.HasPrefix(name, "gemini"):
		return KindGemini
	case name == "anthropic" || strings.HasPrefix(name, "claude"):
		return KindAnthropic
	default:
		return KindOpenAI
	}
}

// Request is one model call. Messages holds only user/assistant turns; the
// persona goes in System.
type Request struct {
	Kind        Kind
	URL         string
	Credential  string
	Model       string
	System      string
	Messages    []memory.Message
	Temperature *float64
	MaxTokens   *int
	ProxyURL    string
}

// Client performs one model call.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 2 * time.Minute

// Router dispatches a Request to the translation for its Kind.
type Router struct {
	// Transport, when set, is used for every call and proxies are ignored.
	Transport http.RoundTripper
	Timeout   time.Duration

	mu      sync.Mutex
	clients map[string]*http.Client
}

func NewRouter() *Router {
	return &Router{Timeout: DefaultTimeout}
}

func (r *Router) Complete(ctx context.Context, req Request) (string, error) {
	hc, err := r.httpClient(req.ProxyURL)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	switch req.Kind {
	case KindAnthropic:
		return completeAnthropic(ctx, hc, req)
	case KindGemini:
		return completeGemini(ctx, hc, req)
	case KindOpenAI, "":
		return completeOpenAI(ctx, hc, req)
	default:
		return "", &UpstreamError{Err: fmt.Errorf("unsupported provider kind %q", req.Kind)}
	}
}

// httpClient returns a client per proxy URL, reused across calls.
func (r *Router) httpClient(proxy string) (*http.Client, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if r.Transport != nil {
		return &http.Client{Transport: r.Transport, Timeout: timeout}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if hc, ok := r.clients[proxy]; ok {
		return hc, nil
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", proxy, err)
		}
		tr.Proxy = http.ProxyURL(u)
	}
	hc := &http.Client{Transport: tr, Timeout: timeout}
	if r.clients == nil {
		r.clients = make(map[string]*http.Client)
	}
	r.clients[proxy] = hc
	return hc, nil
}
