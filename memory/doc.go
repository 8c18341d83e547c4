// Package memory stores per-conversation state: the selected persona and
// model, generation parameters and the rolling transcript.
//
// Persistence model:
//   - One Record per conversation id under the "groups" namespace.
//   - Stored parameters keep their nulls; defaults are merged on every Get so
//     later changes to the process-wide defaults stay visible.
//   - History is trimmed (see internal/windowing) before every write.
//   - Records are never deleted. ResetHistory empties the transcript only.
//
// Read failures recover to a fresh record and write failures are logged;
// neither is returned to the caller.
package memory
