package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(typ runner.EventType) runner.Event {
	snap := domain.NewSnapshot("uav-1")
	snap.Mode = domain.ModeRTL
	snap.Phase = domain.PhaseReturn
	snap.Triplet.Current = domain.PositionSetpoint{Valid: true, Type: domain.SetpointPosition, Lat: 47.5, Lon: 8.5, Alt: 548}
	return runner.Event{
		Type:     typ,
		Time:     time.Date(2014, 7, 1, 12, 0, 3, 0, time.UTC),
		From:     domain.PhaseClimb,
		Snapshot: snap,
	}
}

func TestTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := runner.NewTextHandler(&buf)
	h.Highlight = func(s string) string { return "*" + s }

	require.NoError(t, h.Handle(context.Background(), sampleEvent(runner.EventPhaseChanged)))
	require.NoError(t, h.Handle(context.Background(), sampleEvent(runner.EventTargetChanged)))
	h.Advise(domain.SeverityCritical, "RTL: return at 548 m (60 m above home)")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "*12:00:03.0  mode=rtl phase CLIMB -> RETURN", lines[0])
	assert.Equal(t, "12:00:03.0  target 47.500000, 8.500000 alt 548.0 m (position)", lines[1])
	assert.Equal(t, "*[critical] RTL: return at 548 m (60 m above home)", lines[2])
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	h := runner.NewJSONHandler(&buf)

	require.NoError(t, h.Handle(context.Background(), sampleEvent(runner.EventPhaseChanged)))
	require.NoError(t, h.Handle(context.Background(), sampleEvent(runner.EventTargetChanged)))

	dec := json.NewDecoder(&buf)

	var phase map[string]any
	require.NoError(t, dec.Decode(&phase))
	assert.Equal(t, "phase_changed", phase["type"])
	assert.Equal(t, "RETURN", phase["phase"])
	assert.Equal(t, "CLIMB", phase["from"])
	assert.NotContains(t, phase, "target")

	var target map[string]any
	require.NoError(t, dec.Decode(&target))
	assert.Equal(t, "target_changed", target["type"])
	assert.NotContains(t, target, "from")
	require.Contains(t, target, "target")
	assert.Equal(t, 548.0, target["target"].(map[string]any)["alt"])
}

func TestMultiHandler(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := runner.MultiHandler{a, b}
	require.NoError(t, m.Handle(context.Background(), sampleEvent(runner.EventCompleted)))
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestTrace_KeepsPhaseChanges(t *testing.T) {
	tr := runner.NewTrace(100)
	start := time.Date(2014, 7, 1, 12, 0, 0, 0, time.UTC)
	snap := domain.NewSnapshot("v")

	snap.Phase = domain.PhaseClimb
	for i := range 5 {
		tr.Record(start.Add(time.Duration(i)*time.Second), snap)
	}
	snap.Phase = domain.PhaseReturn
	tr.Record(start.Add(5*time.Second), snap)

	points := tr.Points()
	require.Len(t, points, 2)
	assert.Equal(t, domain.PhaseReturn, points[1].Phase)
	assert.Equal(t, 5*time.Second, tr.PhaseDurations()[domain.PhaseClimb])
}
