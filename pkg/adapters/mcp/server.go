package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/homeward/internal/params"
	"github.com/aretw0/homeward/internal/presentation/graph"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StatusResponse is the structured view of a vehicle returned by the tools.
type StatusResponse struct {
	VehicleID string                  `json:"vehicle_id" jsonschema_description:"The vehicle this server controls"`
	Mode      domain.NavMode          `json:"mode" jsonschema_description:"Selected navigation mode (hold, reposition, rtl)"`
	Phase     string                  `json:"phase" jsonschema_description:"Return-to-launch phase"`
	Landed    bool                    `json:"landed" jsonschema_description:"Whether the vehicle is on the ground"`
	Position  domain.GlobalPosition   `json:"position" jsonschema_description:"Current position estimate"`
	Home      domain.HomePosition     `json:"home" jsonschema_description:"Launch point"`
	Target    domain.PositionSetpoint `json:"target" jsonschema_description:"Current position setpoint"`
	History   []string                `json:"history" jsonschema_description:"Phases entered during this return"`
}

// ParamsResponse lists the tunables and their current values.
type ParamsResponse struct {
	Params map[string]float64 `json:"params" jsonschema_description:"Current parameter values keyed by name"`
}

// Navigator is the live guidance state the tools control.
type Navigator interface {
	Snapshot(vehicleID string) *domain.Snapshot
	SetMode(mode domain.NavMode) error
	Reposition(lat, lon, alt float64)
}

// Server exposes a vehicle as an MCP Server.
type Server struct {
	nav       Navigator
	vehicleID string
	params    *params.Store
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(nav Navigator, vehicleID string, store *params.Store, version string, logger *slog.Logger) *Server {
	s := &Server{
		nav:       nav,
		vehicleID: vehicleID,
		params:    store,
		logger:    logger,
		mcpServer: server.NewMCPServer("homeward-mcp", strings.TrimSpace(version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: get_status
	s.mcpServer.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Get the navigation mode, return-to-launch phase and position of the vehicle."),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetStatus))

	// TOOL: set_mode
	s.mcpServer.AddTool(mcp.NewTool("set_mode",
		mcp.WithDescription("Select the navigation mode. 'rtl' starts or resumes the return to launch."),
		mcp.WithString("mode", mcp.Required(), mcp.Enum("hold", "reposition", "rtl"), mcp.Description("Navigation mode")),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetMode))

	// TOOL: reposition
	s.mcpServer.AddTool(mcp.NewTool("reposition",
		mcp.WithDescription("Fly to a position and hold there. Interrupts any return to launch."),
		mcp.WithNumber("lat", mcp.Required(), mcp.Description("Latitude in degrees")),
		mcp.WithNumber("lon", mcp.Required(), mcp.Description("Longitude in degrees")),
		mcp.WithNumber("alt", mcp.Required(), mcp.Description("Absolute altitude in meters")),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleReposition))

	// TOOL: get_params
	s.mcpServer.AddTool(mcp.NewTool("get_params",
		mcp.WithDescription("List the return-to-launch parameters."),
		mcp.WithOutputSchema[ParamsResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetParams))

	// TOOL: set_param
	s.mcpServer.AddTool(mcp.NewTool("set_param",
		mcp.WithDescription("Set a return-to-launch parameter. Takes effect at the next target computation."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Parameter name, e.g. RTL_RETURN_ALT")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("New value")),
		mcp.WithOutputSchema[ParamsResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetParam))

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the return-to-launch phase graph as a Mermaid flowchart with the vehicle's progress."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.graph()), nil
	})
}

func (s *Server) status() StatusResponse {
	snap := s.nav.Snapshot(s.vehicleID)
	history := make([]string, len(snap.History))
	for i, p := range snap.History {
		history[i] = p.String()
	}
	return StatusResponse{
		VehicleID: snap.VehicleID,
		Mode:      snap.Mode,
		Phase:     snap.Phase.String(),
		Landed:    snap.Landed,
		Position:  snap.Position,
		Home:      snap.Home,
		Target:    snap.Triplet.Current,
		History:   history,
	}
}

func (s *Server) graph() string {
	return graph.GenerateMermaid(graph.OverlayFor(s.nav.Snapshot(s.vehicleID)))
}

// Handler methods for structured tools

func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	return s.status(), nil
}

func (s *Server) handleSetMode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	raw, _ := args["mode"].(string)
	mode, err := domain.ParseMode(raw)
	if err != nil {
		return StatusResponse{}, err
	}
	if err := s.nav.SetMode(mode); err != nil {
		return StatusResponse{}, fmt.Errorf("set mode failed: %w", err)
	}
	s.logger.Info("MCP: mode changed", "vehicle", s.vehicleID, "mode", mode)
	return s.status(), nil
}

func (s *Server) handleReposition(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	var coords [3]float64
	for i, key := range []string{"lat", "lon", "alt"} {
		v, ok := args[key].(float64)
		if !ok {
			return StatusResponse{}, fmt.Errorf("%s must be a number", key)
		}
		coords[i] = v
	}
	s.nav.Reposition(coords[0], coords[1], coords[2])
	return s.status(), nil
}

func (s *Server) handleGetParams(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ParamsResponse, error) {
	return s.paramsResponse(), nil
}

func (s *Server) handleSetParam(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ParamsResponse, error) {
	key, _ := args["key"].(string)
	value, ok := args["value"].(float64)
	if !ok {
		return ParamsResponse{}, fmt.Errorf("value must be a number")
	}
	if err := s.params.Set(strings.ToUpper(strings.TrimSpace(key)), value); err != nil {
		return ParamsResponse{}, err
	}
	s.logger.Info("MCP: parameter set", "key", key, "value", value)
	return s.paramsResponse(), nil
}

func (s *Server) paramsResponse() ParamsResponse {
	out := ParamsResponse{Params: make(map[string]float64)}
	for _, key := range s.params.Keys() {
		out.Params[key], _ = s.params.Float(key)
	}
	return out
}

func (s *Server) registerResources() {
	// EXPOSE: homeward://graph
	s.mcpServer.AddResource(mcp.NewResource("homeward://graph", "Return-to-launch phase graph",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "homeward://graph",
				MIMEType: "text/plain",
				Text:     s.graph(),
			},
		}, nil
	})

	// EXPOSE: homeward://status
	s.mcpServer.AddResource(mcp.NewResource("homeward://status", "Vehicle status",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.status())
		if err != nil {
			return nil, fmt.Errorf("failed to encode status: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "homeward://status",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
