package telemetry

import (
	"os"
	"strings"
)

const defaultArtifactsDir = ".aichat"

var (
	observeEnabled  bool
	featuresEnabled bool
)

func init() {
	// Read once at process start. Mid-run environment changes have no effect.
	observeEnabled = os.Getenv("AICHAT_OBSERVE_JSON") == "1"

	// Features: default to observe when AICHAT_LOCAL_FEATURES is unset; honour explicit 0/1.
	if v, ok := os.LookupEnv("AICHAT_LOCAL_FEATURES"); ok {
		featuresEnabled = (v == "1")
	} else {
		featuresEnabled = observeEnabled
	}
}

// ObserveEnabled reports whether JSONL emission was enabled at startup.
func ObserveEnabled() bool {
	// Preserve startup-evaluated default, but allow tests to enable mid-run via env override.
	if os.Getenv("AICHAT_OBSERVE_JSON") == "1" {
		return true
	}
	return observeEnabled
}

// LocalFeaturesEnabled reports whether local_features events are emitted.
func LocalFeaturesEnabled() bool {
	if v, ok := os.LookupEnv("AICHAT_LOCAL_FEATURES"); ok && v == "0" {
		return false
	}
	if os.Getenv("AICHAT_LOCAL_FEATURES") == "1" {
		return true
	}
	return featuresEnabled
}

// ArtifactsDir returns the directory holding events.jsonl.
func ArtifactsDir() string {
	if v := strings.TrimSpace(os.Getenv("AICHAT_ARTIFACTS_DIR")); v != "" {
		return v
	}
	return defaultArtifactsDir
}
