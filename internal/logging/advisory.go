package logging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
)

// AdvisorySink logs operator advisories and forwards them to any extra sinks.
type AdvisorySink struct {
	logger *slog.Logger

	mu     sync.RWMutex
	fanout []ports.AdvisorySink
}

var _ ports.AdvisorySink = (*AdvisorySink)(nil)

// NewAdvisorySink creates a sink writing to logger. Extra sinks receive every
// advisory after it is logged.
func NewAdvisorySink(logger *slog.Logger, extra ...ports.AdvisorySink) *AdvisorySink {
	if logger == nil {
		logger = NewNop()
	}
	return &AdvisorySink{logger: logger, fanout: extra}
}

// Advise logs the message at the level matching its severity.
func (s *AdvisorySink) Advise(severity domain.Severity, message string) {
	s.logger.Log(context.Background(), SeverityLevel(severity), message, "severity", severity)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sink := range s.fanout {
		sink.Advise(severity, message)
	}
}

// Attach adds a sink after construction, e.g. an output handler created
// once the run is configured.
func (s *AdvisorySink) Attach(sink ports.AdvisorySink) {
	if sink == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fanout = append(s.fanout, sink)
}

// SeverityLevel maps an advisory severity to a slog level.
// Critical advisories are operator-facing, not failures, so they log as warnings.
func SeverityLevel(severity domain.Severity) slog.Level {
	switch severity {
	case domain.SeverityInfo:
		return slog.LevelInfo
	case domain.SeverityWarning, domain.SeverityCritical:
		return slog.LevelWarn
	case domain.SeverityEmergency:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
