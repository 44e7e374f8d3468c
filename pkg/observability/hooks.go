package observability

import (
	"log/slog"

	"github.com/aretw0/homeward/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that log phase transitions and targets.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnter: func(e *domain.PhaseEvent) {
			logger.Info("phase_enter", "phase", e.Phase.String(), "from", e.From.String())
		},
		OnPhaseLeave: func(e *domain.PhaseEvent) {
			logger.Debug("phase_leave", "phase", e.Phase.String())
		},
		OnTargetChanged: func(e *domain.TargetEvent) {
			logger.Debug("target_changed",
				"phase", e.Phase.String(),
				"lat", e.Item.Lat,
				"lon", e.Item.Lon,
				"alt", e.Item.Altitude,
				"cmd", e.Item.NavCmd,
			)
		},
	}
}
