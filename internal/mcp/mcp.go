// Package mcp implements the Model Context Protocol server for Maestro.
//
// The MCP server exposes the conversation engine and the simulated business
// tools through MCP tools and resources, so MCP-compatible agents can drive
// a simulation session programmatically.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/atelier-ai/maestro/internal/engine"
	"github.com/atelier-ai/maestro/internal/model"
	"github.com/atelier-ai/maestro/internal/persona"
	"github.com/atelier-ai/maestro/internal/tools"
	"github.com/atelier-ai/maestro/internal/transcript"
)

// Server wraps the MCP server with Maestro's engine and tools.
type Server struct {
	mcpServer  *mcpserver.MCPServer
	engine     *engine.Engine
	transcript *transcript.Store
	logger     *slog.Logger
}

// New creates and configures a new MCP server with all resources and tools.
// transcriptStore may be nil when transcript logging is disabled.
func New(eng *engine.Engine, transcriptStore *transcript.Store, logger *slog.Logger) *Server {
	s := &Server{
		engine:     eng,
		transcript: transcriptStore,
		logger:     logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"maestro",
		"0.1.0",
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func (s *Server) registerResources() {
	// maestro://personas — the simulation roster.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"maestro://personas",
			"Personas",
			mcplib.WithResourceDescription("The simulation's leadership roster"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePersonas,
	)

	// maestro://session/{id} — full session state.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"maestro://session/{id}",
			"Session State",
			mcplib.WithTemplateDescription("Orchestration state for a specific session"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleSessionState,
	)

	// maestro://session/{id}/transcript — replayable transcript.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"maestro://session/{id}/transcript",
			"Session Transcript",
			mcplib.WithTemplateDescription("Append-only transcript for a specific session"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleSessionTranscript,
	)
}

func (s *Server) registerTools() {
	// maestro_chat — send a message into a simulation session.
	s.mcpServer.AddTool(
		mcplib.NewTool("maestro_chat",
			mcplib.WithDescription("Send a message to the leadership simulation and receive the responding persona's reply"),
			mcplib.WithString("session_id", mcplib.Description("Session identifier"), mcplib.Required()),
			mcplib.WithString("user_id", mcplib.Description("User identifier"), mcplib.Required()),
			mcplib.WithString("message", mcplib.Description("The message to send"), mcplib.Required()),
			mcplib.WithString("persona", mcplib.Description("Optional explicit persona: CEO, CHRO, or RegionalManager")),
		),
		s.handleChat,
	)

	// The simulated business tools are pass-throughs to the tools package.
	for _, def := range tools.Registry() {
		name := def.Name
		s.mcpServer.AddTool(
			mcplib.NewTool(name, mcplib.WithDescription(def.Description)),
			func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
				return s.invokeBusinessTool(ctx, name, request.GetArguments())
			},
		)
	}
}

func (s *Server) invokeBusinessTool(ctx context.Context, name string, args map[string]any) (*mcplib.CallToolResult, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	out, err := tools.Invoke(ctx, name, raw)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(out)
}

func (s *Server) handleChat(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	userID := request.GetString("user_id", "")
	message := request.GetString("message", "")
	target := model.PersonaID(request.GetString("persona", ""))

	if sessionID == "" || userID == "" || message == "" {
		return errorResult("session_id, user_id, and message are required"), nil
	}
	if target != "" && !model.IsContentPersona(target) {
		return errorResult(fmt.Sprintf("unknown persona: %s", target)), nil
	}

	result, err := s.engine.HandleTurn(ctx, userID, sessionID, message, target)
	if err != nil {
		return errorResult(fmt.Sprintf("turn failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handlePersonas(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(persona.All(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal personas: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "maestro://personas",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSessionState(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	id := strings.TrimPrefix(uri, "maestro://session/")
	if id == "" || strings.Contains(id, "/") {
		return nil, fmt.Errorf("mcp: invalid session URI: %s", uri)
	}

	sess, err := s.engine.Session(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mcp: session state: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal session: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSessionTranscript(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	id := strings.TrimPrefix(uri, "maestro://session/")
	id = strings.TrimSuffix(id, "/transcript")
	if id == "" || strings.Contains(id, "/") {
		return nil, fmt.Errorf("mcp: invalid transcript URI: %s", uri)
	}
	if s.transcript == nil {
		return nil, fmt.Errorf("mcp: transcript logging is disabled")
	}

	entries, err := s.transcript.History(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("mcp: session transcript: %w", err)
	}
	data, err := json.MarshalIndent(map[string]any{
		"session_id": id,
		"entries":    entries,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal transcript: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
