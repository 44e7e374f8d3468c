package observability_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()

	hooks.OnPhaseEnter(&domain.PhaseEvent{Phase: domain.PhaseClimb, From: domain.PhaseNone})
	hooks.OnPhaseEnter(&domain.PhaseEvent{Phase: domain.PhaseReturn, From: domain.PhaseClimb})
	hooks.OnTargetChanged(&domain.TargetEvent{Phase: domain.PhaseReturn, Item: domain.MissionItem{Altitude: 548}})
	hooks.OnAdvisory(&domain.AdvisoryEvent{Advisory: domain.Advisory{Severity: domain.SeverityCritical}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseEntries.WithLabelValues("CLIMB")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseEntries.WithLabelValues("RETURN")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CurrentPhase.WithLabelValues("CLIMB")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CurrentPhase.WithLabelValues("RETURN")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CurrentPhase.WithLabelValues("NONE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TargetChanges))
	assert.Equal(t, 548.0, testutil.ToFloat64(m.TargetAltitude))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Advisories.WithLabelValues("critical")))

	count, err := testutil.GatherAndCount(reg, "homeward_rtl_phase")
	require.NoError(t, err)
	assert.Equal(t, len(domain.Phases), count)
}

func TestMetrics_Unregistered(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().OnTargetChanged(&domain.TargetEvent{})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TargetChanges))
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)

	hooks.OnPhaseEnter(&domain.PhaseEvent{Phase: domain.PhaseDescend, From: domain.PhaseReturn})
	hooks.OnTargetChanged(&domain.TargetEvent{Phase: domain.PhaseDescend, Item: domain.MissionItem{Altitude: 508, NavCmd: domain.NavCmdLoiterTimeLimit}})

	out := buf.String()
	assert.Contains(t, out, "msg=phase_enter phase=DESCEND from=RETURN")
	assert.Contains(t, out, "cmd=loiter_time_limit")
}
