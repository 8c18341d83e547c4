// Package telemetry appends structured events to a local JSONL file.
//
// Emission is off unless AICHAT_OBSERVE_JSON=1. Events land in
// $AICHAT_ARTIFACTS_DIR/events.jsonl (default .aichat/events.jsonl). Events
// carry sizes, counts and ids only; message text is never written.
package telemetry
