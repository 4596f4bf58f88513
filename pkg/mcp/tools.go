package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	// Health check
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check the health status of the announcement service and its store"),
		),
		s.handleGetHealth,
	)

	// List devices
	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List all announcement and salutation devices"),
		),
		s.handleListDevices,
	)

	// List announcements
	s.mcpServer.AddTool(
		mcp.NewTool("list_announcements",
			mcp.WithDescription("List the announcements of one device with their refresh schedule"),
			mcp.WithNumber("device_id",
				mcp.Required(),
				mcp.Description("Device id owning the announcements"),
			),
		),
		s.handleListAnnouncements,
	)

	// Create announcement
	s.mcpServer.AddTool(
		mcp.NewTool("create_announcement",
			mcp.WithDescription("Create a new announcement. Text may contain substitution markers and <<value, spec>> format tokens."),
			mcp.WithNumber("device_id",
				mcp.Required(),
				mcp.Description("Device id owning the announcement"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Announcement name, also its state key with spaces as underscores"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Announcement text"),
			),
			mcp.WithString("refresh",
				mcp.Required(),
				mcp.Description("Refresh interval in minutes, a positive number"),
			),
		),
		s.handleCreateAnnouncement,
	)

	// Edit announcement
	s.mcpServer.AddTool(
		mcp.NewTool("edit_announcement",
			mcp.WithDescription("Update an announcement's name, text and refresh interval"),
			mcp.WithNumber("device_id",
				mcp.Required(),
				mcp.Description("Device id owning the announcement"),
			),
			mcp.WithNumber("announcement_id",
				mcp.Required(),
				mcp.Description("Announcement id"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("New announcement name"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("New announcement text"),
			),
			mcp.WithString("refresh",
				mcp.Required(),
				mcp.Description("New refresh interval in minutes"),
			),
		),
		s.handleEditAnnouncement,
	)

	// Duplicate announcement
	s.mcpServer.AddTool(
		mcp.NewTool("duplicate_announcement",
			mcp.WithDescription("Copy an announcement under a new id with a \" copy\" name suffix"),
			mcp.WithNumber("device_id",
				mcp.Required(),
				mcp.Description("Device id owning the announcement"),
			),
			mcp.WithNumber("announcement_id",
				mcp.Required(),
				mcp.Description("Announcement id to copy"),
			),
		),
		s.handleDuplicateAnnouncement,
	)

	// Delete announcement
	s.mcpServer.AddTool(
		mcp.NewTool("delete_announcement",
			mcp.WithDescription("Delete an announcement"),
			mcp.WithNumber("device_id",
				mcp.Required(),
				mcp.Description("Device id owning the announcement"),
			),
			mcp.WithNumber("announcement_id",
				mcp.Required(),
				mcp.Description("Announcement id to delete"),
			),
		),
		s.handleDeleteAnnouncement,
	)

	// Refresh announcements
	s.mcpServer.AddTool(
		mcp.NewTool("refresh_announcements",
			mcp.WithDescription("Recompute and republish every announcement immediately without moving refresh schedules"),
		),
		s.handleRefreshAnnouncements,
	)

	// Speak announcement
	s.mcpServer.AddTool(
		mcp.NewTool("speak_announcement",
			mcp.WithDescription("Render announcement text and hand it to the speech backend. Give either free-form text or a stored announcement."),
			mcp.WithString("text",
				mcp.Description("Free-form text to speak"),
			),
			mcp.WithNumber("device_id",
				mcp.Description("Device id of a stored announcement"),
			),
			mcp.WithNumber("announcement_id",
				mcp.Description("Id of a stored announcement"),
			),
		),
		s.handleSpeakAnnouncement,
	)

	// Export store
	s.mcpServer.AddTool(
		mcp.NewTool("export_announcements",
			mcp.WithDescription("Export the full announcement store as canonical JSON"),
		),
		s.handleExportAnnouncements,
	)
}
