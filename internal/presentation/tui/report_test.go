package tui_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/homeward/internal/presentation/tui"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestReport_Markdown(t *testing.T) {
	snap := domain.NewSnapshot("uav-1")
	snap.Mode = domain.ModeRTL
	snap.Phase = domain.PhaseLanded
	snap.Landed = true
	snap.Home = domain.HomePosition{Lat: 47.397742, Lon: 8.545594, Alt: 488}
	snap.Position = domain.GlobalPosition{Lat: 47.397742, Lon: 8.545594, Alt: 488}

	md := tui.Report{
		VehicleID: "uav-1",
		Snapshot:  snap,
		Elapsed:   95 * time.Second,
		Durations: map[domain.Phase]time.Duration{
			domain.PhaseReturn: 40 * time.Second,
			domain.PhaseClimb:  10 * time.Second,
		},
	}.Markdown()

	assert.Contains(t, md, "# Flight report: uav-1")
	assert.Contains(t, md, "| Phase | LANDED |")
	assert.Contains(t, md, "| Distance to home | 0.0 m |")
	assert.Contains(t, md, "| Flight time | 1m35s |")
	assert.Less(t, strings.Index(md, "| CLIMB |"), strings.Index(md, "| RETURN |"), "phases listed in sequence order")
	assert.NotContains(t, md, "Stopped")
}

func TestReport_Error(t *testing.T) {
	md := tui.Report{VehicleID: "v", Err: errors.New("max duration exceeded")}.Markdown()
	assert.Contains(t, md, "**Stopped:** max duration exceeded")
	assert.NotContains(t, md, "## Phases")
}
