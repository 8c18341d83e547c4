// Package metrics exposes prometheus collectors for the chat core and the
// local text features attached to telemetry events.
//
// Collectors register on the default registry at init; cmd/aichat serves
// them via promhttp when a metrics address is configured.
package metrics
