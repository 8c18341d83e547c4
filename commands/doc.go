// Package commands maps user text to chat operations and formats replies.
//
// Includes:
//   - Definition: name, prefixes, description, handler.
//   - Registry(): every command, in match order.
//   - Dispatcher: longest-prefix matching and per-kind error rendering.
//
// Prefixes are matched literally at the start of the text. A prefix ending
// in an ASCII letter or digit must be followed by a space or the end of the
// text, so "#t" never swallows "#toggle".
package commands
