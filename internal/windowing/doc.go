// Package windowing bounds the stored transcript before it is persisted.
//
// Trimming only ever removes from the oldest end, so the survivors are always
// a suffix of the input. It has no notion of user/assistant pairs.
package windowing
