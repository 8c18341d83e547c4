// Package runner performs one model turn for a conversation.
//
// Flow:
//
//	resolved model + credential + transcript -> provider.Request -> reply text
//
// The runner never mutates the transcript. Telemetry events carry the turn
// id from the context (generated when absent) and never message text.
package runner
