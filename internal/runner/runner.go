package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/petasbytes/aichat/internal/config"
	"github.com/petasbytes/aichat/internal/logging"
	"github.com/petasbytes/aichat/internal/metrics"
	"github.com/petasbytes/aichat/internal/provider"
	"github.com/petasbytes/aichat/internal/telemetry"
	"github.com/petasbytes/aichat/memory"
)

type Runner struct {
	Client provider.Client
	log    *slog.Logger
}

func New(client provider.Client, logger *slog.Logger) *Runner {
	return &Runner{Client: client, log: logging.OrDiscard(logger)}
}

// Turn is everything needed for one model call.
type Turn struct {
	Group       string
	Model       config.Resolved
	Credential  string
	System      string
	History     []memory.Message
	Temperature *float64
	MaxTokens   *int
}

// Request translates t into the provider collaborator's request.
func (t Turn) Request() provider.Request {
	return provider.Request{
		Kind:        provider.KindFor(t.Model.Provider, t.Model.Kind),
		URL:         t.Model.FullURL,
		Credential:  t.Credential,
		Model:       t.Model.Model,
		System:      t.System,
		Messages:    t.History,
		Temperature: t.Temperature,
		MaxTokens:   t.MaxTokens,
		ProxyURL:    t.Model.ProxyURL,
	}
}

// RunTurn sends the transcript and returns the reply text.
func (r *Runner) RunTurn(ctx context.Context, t Turn) (string, error) {
	ctx, turnID := telemetry.EnsureTurnID(ctx)
	req := t.Request()

	telemetry.TurnPrepared(ctx, t.Group, t.Model.Provider, t.Model.ID, len(req.Messages))
	if n := len(t.History); n > 0 && t.History[n-1].Role == memory.RoleUser {
		telemetry.EmitLocalFeatures(ctx, t.History[n-1].Content)
	}
	r.log.Debug("turn_sending", "turn_id", turnID, "group", t.Group, "model", t.Model.ID,
		"kind", string(req.Kind), "messages", len(req.Messages))

	start := time.Now()
	text, err := r.Client.Complete(ctx, req)
	elapsed := time.Since(start)

	status := 0
	var ue *provider.UpstreamError
	if errors.As(err, &ue) {
		status = ue.Status
		metrics.ObserveUpstreamFailure(status)
	}
	telemetry.TurnCompleted(ctx, t.Group, elapsed, status, err)

	if err != nil {
		r.log.Warn("turn_failed", "turn_id", turnID, "group", t.Group, "model", t.Model.ID,
			"status", status, "duration_ms", elapsed.Milliseconds(), "error", err)
		return "", err
	}
	r.log.Info("turn_completed", "turn_id", turnID, "group", t.Group, "model", t.Model.ID,
		"duration_ms", elapsed.Milliseconds(), "reply_runes", len([]rune(text)))
	return text, nil
}
