// Package ui holds the small line-oriented widgets televisor prints outside
// the full-screen display: a status spinner for slow startup steps and the
// shared status symbols.
//
// Spinners write carriage-return frames to an io.Writer, normally stderr, so
// stdout stays clean for JSON from `televisor fetch`.
package ui
