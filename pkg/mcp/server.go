package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/scheduler"
	"github.com/urmzd/announce/pkg/speech"
)

// Server wraps the MCP server with announcement management tools
type Server struct {
	mcpServer *server.MCPServer
	store     *announce.Store
	sched     *scheduler.Scheduler
	devices   db.DeviceStore
	vars      db.VariableStore
	speaker   speech.Speaker
	profileID int64
}

// NewServer creates a new MCP server for announcement management
func NewServer(store *announce.Store, sched *scheduler.Scheduler, devices db.DeviceStore, vars db.VariableStore, speaker speech.Speaker, profileID int64) *Server {
	s := &Server{
		store:     store,
		sched:     sched,
		devices:   devices,
		vars:      vars,
		speaker:   speaker,
		profileID: profileID,
	}

	// Create MCP server
	s.mcpServer = server.NewMCPServer(
		"announce",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Register all tools
	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
