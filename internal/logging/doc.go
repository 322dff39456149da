// Package logging builds the process-wide slog logger and provides small
// attribute helpers shared by every component.
package logging
