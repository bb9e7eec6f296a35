// Package logging builds the application's slog logger. Records go to a
// size-rotated file (lumberjack) because the TUI owns the terminal; plain
// mode may send them to stderr instead.
package logging
