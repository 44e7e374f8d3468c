package kml_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/homeward/internal/presentation/kml"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	start := time.Date(2014, 7, 1, 12, 0, 0, 0, time.UTC)
	points := []runner.TracePoint{
		{Time: start, Phase: domain.PhaseClimb, Position: domain.GlobalPosition{Lat: 47.40, Lon: 8.55, Alt: 500}},
		{Time: start.Add(time.Second), Phase: domain.PhaseClimb, Position: domain.GlobalPosition{Lat: 47.40, Lon: 8.55, Alt: 548}},
		{Time: start.Add(2 * time.Second), Phase: domain.PhaseReturn, Position: domain.GlobalPosition{Lat: 47.39, Lon: 8.54, Alt: 548}},
	}
	home := domain.HomePosition{Lat: 47.397742, Lon: 8.545594, Alt: 488}

	var buf bytes.Buffer
	require.NoError(t, kml.Write(&buf, "uav-1", home, points))
	out := buf.String()

	assert.Contains(t, out, "<kml")
	assert.Contains(t, out, "<name>uav-1</name>")
	assert.Contains(t, out, "<name>Home</name>")
	assert.Contains(t, out, "#styleclimb")
	assert.Contains(t, out, "#stylereturn")
	assert.Equal(t, 2, strings.Count(out, "<LineString>"))
	// The RETURN segment starts where CLIMB ended.
	assert.Equal(t, 2, strings.Count(out, "8.55,47.4,548"))
	assert.Contains(t, out, "8.54,47.39,548")
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, kml.Write(&buf, "empty", domain.HomePosition{}, nil))
	assert.NotContains(t, buf.String(), "<LineString>")
}
