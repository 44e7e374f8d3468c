// Package kml exports a flown return-to-launch trace for Google Earth.
package kml

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/runner"
	kml "github.com/twpayne/go-kml"
)

var phaseColors = map[domain.Phase]color.RGBA{
	domain.PhaseClimb:   {R: 0xff, G: 0xa0, B: 0x00, A: 0xff},
	domain.PhaseReturn:  {R: 0x00, G: 0x7f, B: 0xff, A: 0xff},
	domain.PhaseDescend: {R: 0x80, G: 0x00, B: 0xff, A: 0xff},
	domain.PhaseLoiter:  {R: 0xff, G: 0xff, B: 0x00, A: 0xff},
	domain.PhaseLand:    {R: 0x00, G: 0xc0, B: 0x00, A: 0xff},
	domain.PhaseLanded:  {R: 0x00, G: 0xc0, B: 0x00, A: 0xff},
}

var defaultColor = color.RGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}

// segment is a run of consecutive points sharing a phase.
type segment struct {
	phase  domain.Phase
	points []kml.Coordinate
}

func segments(points []runner.TracePoint) []segment {
	var out []segment
	for _, p := range points {
		c := kml.Coordinate{Lon: p.Position.Lon, Lat: p.Position.Lat, Alt: p.Position.Alt}
		if n := len(out); n > 0 && out[n-1].phase == p.Phase {
			out[n-1].points = append(out[n-1].points, c)
			continue
		}
		seg := segment{phase: p.Phase}
		// Joins the previous segment so the track has no gaps.
		if n := len(out); n > 0 {
			prev := out[n-1].points
			seg.points = append(seg.points, prev[len(prev)-1])
		}
		seg.points = append(seg.points, c)
		out = append(out, seg)
	}
	return out
}

func styleID(p domain.Phase) string {
	return "style" + strings.ToLower(p.String())
}

// Build returns the KML document for a trace.
func Build(name string, home domain.HomePosition, points []runner.TracePoint) *kml.CompoundElement {
	doc := kml.Document(kml.Name(name), kml.Open(true))

	for _, p := range domain.Phases {
		c, ok := phaseColors[p]
		if !ok {
			c = defaultColor
		}
		doc.Add(kml.SharedStyle(styleID(p),
			kml.LineStyle(
				kml.Color(c),
				kml.Width(3),
			),
		))
	}

	doc.Add(kml.Placemark(
		kml.Name("Home"),
		kml.Description(fmt.Sprintf("Home<br/>Altitude: %.0fm", home.Alt)),
		kml.Point(
			kml.AltitudeMode(kml.AltitudeModeAbsolute),
			kml.Coordinates(kml.Coordinate{Lon: home.Lon, Lat: home.Lat, Alt: home.Alt}),
		),
	))

	for _, seg := range segments(points) {
		doc.Add(kml.Placemark(
			kml.Name(seg.phase.String()),
			kml.StyleURL("#"+styleID(seg.phase)),
			kml.LineString(
				kml.AltitudeMode(kml.AltitudeModeAbsolute),
				kml.Extrude(false),
				kml.Tessellate(false),
				kml.Coordinates(seg.points...),
			),
		))
	}
	return kml.KML(doc)
}

// Write renders the trace as indented KML.
func Write(w io.Writer, name string, home domain.HomePosition, points []runner.TracePoint) error {
	return Build(name, home, points).WriteIndent(w, "", "  ")
}
