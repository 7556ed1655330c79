package slog

import (
	"log/slog"

	"github.com/fwojciec/webcrawl"
)

// Ensure LoggingRegistry implements webcrawl.VisitedRegistry.
var _ webcrawl.VisitedRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps a VisitedRegistry with debug logging of claims.
type LoggingRegistry struct {
	next   webcrawl.VisitedRegistry
	logger *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next webcrawl.VisitedRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

// Claim delegates to the wrapped registry and logs the outcome.
func (r *LoggingRegistry) Claim(url string) bool {
	claimed := r.next.Claim(url)
	r.logger.Debug("claim",
		"url", url,
		"claimed", claimed,
	)
	return claimed
}

// Len delegates to the wrapped registry.
func (r *LoggingRegistry) Len() int {
	return r.next.Len()
}
