package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/homeward/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	Visited []domain.Phase
	Current domain.Phase
}

// Edge is a transition of the return-to-launch sequence.
type Edge struct {
	From      domain.Phase
	To        domain.Phase
	Condition string
}

// Edges lists every transition the controller can take.
var Edges = []Edge{
	{From: domain.PhaseNone, To: domain.PhaseClimb, Condition: "below return alt"},
	{From: domain.PhaseNone, To: domain.PhaseReturn, Condition: "at or above return alt"},
	{From: domain.PhaseNone, To: domain.PhaseLanded, Condition: "landed"},
	{From: domain.PhaseClimb, To: domain.PhaseReturn},
	{From: domain.PhaseReturn, To: domain.PhaseDescend},
	{From: domain.PhaseDescend, To: domain.PhaseLoiter, Condition: "land delay set"},
	{From: domain.PhaseDescend, To: domain.PhaseLand, Condition: "no land delay"},
	{From: domain.PhaseLoiter, To: domain.PhaseLand, Condition: "delay elapsed"},
	{From: domain.PhaseLand, To: domain.PhaseLanded},
}

// GenerateMermaid produces a Mermaid flowchart of the phase sequence.
// It applies semantic styling:
// - NONE: ((Circle))
// - LANDED: [[Subroutine]]
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, phase := range domain.Phases {
		opener, closer := "[", "]"
		switch phase {
		case domain.PhaseNone:
			opener, closer = "((", "))"
		case domain.PhaseLanded:
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", nodeID(phase), opener, phase, closer))
	}

	for _, e := range Edges {
		arrow := "-->"
		if e.Condition != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(e.Condition, "\"", "'"))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", nodeID(e.From), arrow, nodeID(e.To)))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.Phase]bool)
		for _, p := range overlay.Visited {
			if seen[p] || p == overlay.Current {
				continue
			}
			seen[p] = true
			sb.WriteString(fmt.Sprintf("    class %s visited;\n", nodeID(p)))
		}
		sb.WriteString(fmt.Sprintf("    class %s current;\n", nodeID(overlay.Current)))
	}

	return sb.String()
}

// OverlayFor builds the overlay of a stored snapshot.
func OverlayFor(s *domain.Snapshot) *GraphOverlay {
	if s == nil {
		return nil
	}
	return &GraphOverlay{
		Visited: append([]domain.Phase(nil), s.History...),
		Current: s.Phase,
	}
}

func nodeID(p domain.Phase) string {
	return strings.ToLower(p.String())
}
