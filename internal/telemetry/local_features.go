package telemetry

import (
	"context"

	"github.com/petasbytes/aichat/internal/metrics"
)

// EmitLocalFeatures records size features of the user's text, never the text itself.
func EmitLocalFeatures(ctx context.Context, user string) {
	if !(LocalFeaturesEnabled() && ObserveEnabled()) {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(user)
	Emit("local_features", map[string]any{
		"turn_id":          turnID,
		"features_version": "1",
		"user": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
