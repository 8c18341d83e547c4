package telemetry

import (
	"context"
	"time"
)

// TurnPrepared records the resolved request shape for one model call.
// Message contents are never included.
func TurnPrepared(ctx context.Context, group, provider, model string, messages int) {
	turnID, _ := TurnIDFromContext(ctx)
	Emit("turn_prepared", map[string]any{
		"turn_id":  turnID,
		"group":    group,
		"provider": provider,
		"model":    model,
		"messages": messages,
	})
}

// TurnCompleted records the outcome of one model call. status is the
// upstream HTTP status, 0 for transport failures and success.
func TurnCompleted(ctx context.Context, group string, elapsed time.Duration, status int, err error) {
	turnID, _ := TurnIDFromContext(ctx)
	fields := map[string]any{
		"turn_id":     turnID,
		"group":       group,
		"duration_ms": elapsed.Milliseconds(),
		"status":      status,
	}
	if err != nil {
		fields["error"] = err.Error()
	} else {
		fields["error"] = nil
	}
	Emit("turn_completed", fields)
}

// HistoryTrimmed is emitted only when trimming actually evicted messages.
func HistoryTrimmed(group string, before, after, budgetEvicted, capEvicted int, overBudgetFloor bool) {
	Emit("history_trimmed", map[string]any{
		"group":             group,
		"before":            before,
		"after":             after,
		"budget_evicted":    budgetEvicted,
		"cap_evicted":       capEvicted,
		"over_budget_floor": overBudgetFloor,
	})
}

func CredentialRotated(provider string, index, next int) {
	Emit("credential_rotated", map[string]any{
		"provider": provider,
		"index":    index,
		"next":     next,
	})
}
