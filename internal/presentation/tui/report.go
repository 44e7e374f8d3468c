package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/geo"
)

// Report summarizes a finished run.
type Report struct {
	VehicleID string
	Snapshot  *domain.Snapshot
	Elapsed   time.Duration
	Durations map[domain.Phase]time.Duration
	Err       error
}

// Markdown renders the report as a markdown document.
func (r Report) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Flight report: %s\n\n", r.VehicleID)

	if r.Err != nil {
		fmt.Fprintf(&sb, "> **Stopped:** %v\n\n", r.Err)
	}

	if s := r.Snapshot; s != nil {
		dist := geo.Distance(s.Position.Lat, s.Position.Lon, s.Home.Lat, s.Home.Lon)
		sb.WriteString("| Field | Value |\n|---|---|\n")
		fmt.Fprintf(&sb, "| Mode | %s |\n", s.Mode)
		fmt.Fprintf(&sb, "| Phase | %s |\n", s.Phase)
		fmt.Fprintf(&sb, "| Landed | %t |\n", s.Landed)
		fmt.Fprintf(&sb, "| Distance to home | %.1f m |\n", dist)
		fmt.Fprintf(&sb, "| Height above home | %.1f m |\n", s.Position.Alt-s.Home.Alt)
		fmt.Fprintf(&sb, "| Flight time | %s |\n\n", r.Elapsed.Round(100*time.Millisecond))
	}

	if len(r.Durations) > 0 {
		sb.WriteString("## Phases\n\n| Phase | Time |\n|---|---|\n")
		for _, p := range domain.Phases {
			if d, ok := r.Durations[p]; ok {
				fmt.Fprintf(&sb, "| %s | %s |\n", p, d.Round(100*time.Millisecond))
			}
		}
	}
	return sb.String()
}
