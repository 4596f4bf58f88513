package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"
)

const spokenRawVariable = "spoken_announcement_raw"

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storeStatus := "readable"
	status := "healthy"
	if _, err := s.store.All(ctx); err != nil {
		storeStatus = "unreadable"
		status = "unhealthy"
	}

	out := GetHealthOutput{
		Status:    status,
		Store:     storeStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := s.devices.List(ctx, s.profileID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list devices: %s", err)), nil
	}

	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, DeviceToInfo(d))
	}

	out := ListDevicesOutput{
		Devices: infos,
		Count:   len(infos),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListAnnouncements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devID, err := requiredInt(request, "device_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	col, err := s.store.All(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read store: %s", err)), nil
	}

	infos := make([]AnnouncementInfo, 0, len(col[devID]))
	for _, rec := range col[devID] {
		infos = append(infos, RecordToInfo(rec))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	out := ListAnnouncementsOutput{
		Announcements: infos,
		Count:         len(infos),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleCreateAnnouncement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devID, err := requiredInt(request, "device_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := requiredString(request, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := requiredString(request, "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refresh, err := requiredString(request, "refresh")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := s.store.Create(ctx, devID, name, text, refresh)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create announcement: %s", err)), nil
	}

	rec, err := s.store.Get(ctx, devID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read back announcement: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(AnnouncementOutput{Announcement: RecordToInfo(rec)})), nil
}

func (s *Server) handleEditAnnouncement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devID, err := requiredInt(request, "device_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := requiredInt(request, "announcement_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := requiredString(request, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := requiredString(request, "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refresh, err := requiredString(request, "refresh")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.store.Edit(ctx, devID, id, name, text, refresh); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to edit announcement: %s", err)), nil
	}

	rec, err := s.store.Get(ctx, devID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read back announcement: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(AnnouncementOutput{Announcement: RecordToInfo(rec)})), nil
}

func (s *Server) handleDuplicateAnnouncement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devID, err := requiredInt(request, "device_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := requiredInt(request, "announcement_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	newID, err := s.store.Duplicate(ctx, devID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to duplicate announcement: %s", err)), nil
	}

	rec, err := s.store.Get(ctx, devID, newID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read back announcement: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(AnnouncementOutput{Announcement: RecordToInfo(rec)})), nil
}

func (s *Server) handleDeleteAnnouncement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devID, err := requiredInt(request, "device_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := requiredInt(request, "announcement_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.store.Delete(ctx, devID, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete announcement: %s", err)), nil
	}

	out := StatusOutput{
		Success: true,
		Message: fmt.Sprintf("Announcement %d deleted", id),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleRefreshAnnouncements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.sched.Tick(ctx, true); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh announcements: %s", err)), nil
	}

	out := StatusOutput{
		Success: true,
		Message: "All announcements refreshed",
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSpeakAnnouncement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	raw, _ := args["text"].(string)
	if raw == "" {
		devID, err := requiredInt(request, "device_id")
		if err != nil {
			return mcp.NewToolResultError("either text or device_id and announcement_id are required"), nil
		}
		id, err := requiredInt(request, "announcement_id")
		if err != nil {
			return mcp.NewToolResultError("either text or device_id and announcement_id are required"), nil
		}
		rec, err := s.store.Get(ctx, devID, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("announcement not found: %s", err)), nil
		}
		raw = rec.Text
	}

	spoken := s.sched.Render(ctx, raw)
	if _, err := s.vars.Set(ctx, spokenRawVariable, spoken); err != nil {
		log.Warn().Err(err).Msg("Failed to record spoken announcement variable")
	}
	if err := s.speaker.Speak(ctx, spoken); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("speech backend failed: %s", err)), nil
	}

	out := SpeakOutput{
		Success: true,
		Spoken:  spoken,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleExportAnnouncements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.store.Export(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to export store: %s", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func requiredInt(request mcp.CallToolRequest, key string) (int64, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("required parameter %q is missing", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("parameter %q must be a number", key)
	}
	return int64(f), nil
}

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
