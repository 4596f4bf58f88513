package mcp

import (
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/db"
)

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status    string `json:"status" jsonschema:"description=Overall health status (healthy or unhealthy)"`
	Store     string `json:"store" jsonschema:"description=Announcement store status"`
	Timestamp string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- List Devices Tool ---

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices" jsonschema:"description=List of registered devices"`
	Count   int          `json:"count" jsonschema:"description=Total number of devices"`
}

// DeviceInfo represents a device in tool outputs
type DeviceInfo struct {
	ID      int64  `json:"id" jsonschema:"description=Device id"`
	Name    string `json:"name" jsonschema:"description=User-friendly device name"`
	Type    string `json:"type" jsonschema:"description=Device type (announcements or salutations)"`
	Enabled bool   `json:"enabled" jsonschema:"description=Whether the scheduler refreshes this device"`
}

// --- Announcement Tools ---

// AnnouncementInfo represents an announcement in tool outputs
type AnnouncementInfo struct {
	ID          int64   `json:"id" jsonschema:"description=Announcement id"`
	Name        string  `json:"name" jsonschema:"description=Announcement name"`
	Text        string  `json:"text" jsonschema:"description=Announcement text with markers and format tokens"`
	Refresh     float64 `json:"refresh" jsonschema:"description=Refresh interval in minutes"`
	NextRefresh string  `json:"next_refresh" jsonschema:"description=Timestamp of the next scheduled refresh"`
	StateKey    string  `json:"state_key" jsonschema:"description=Key the rendered value is published under"`
}

// ListAnnouncementsOutput is the output for the list_announcements tool
type ListAnnouncementsOutput struct {
	Announcements []AnnouncementInfo `json:"announcements" jsonschema:"description=Announcements of the device"`
	Count         int                `json:"count" jsonschema:"description=Total number of announcements"`
}

// AnnouncementOutput is the output for tools returning one announcement
type AnnouncementOutput struct {
	Announcement AnnouncementInfo `json:"announcement" jsonschema:"description=The announcement"`
}

// StatusOutput is the output for tools that only report success
type StatusOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the operation succeeded"`
	Message string `json:"message" jsonschema:"description=Status message"`
}

// SpeakOutput is the output for the speak_announcement tool
type SpeakOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the text was spoken"`
	Spoken  string `json:"spoken" jsonschema:"description=The rendered text handed to the speech backend"`
}

// --- Helper conversions ---

// DeviceToInfo converts a db.Device to DeviceInfo
func DeviceToInfo(d *db.Device) DeviceInfo {
	return DeviceInfo{
		ID:      d.ID,
		Name:    d.Name,
		Type:    d.Type,
		Enabled: d.Enabled,
	}
}

// RecordToInfo converts an announce.Record to AnnouncementInfo
func RecordToInfo(r *announce.Record) AnnouncementInfo {
	return AnnouncementInfo{
		ID:          r.ID,
		Name:        r.Name,
		Text:        r.Text,
		Refresh:     r.RefreshMinutes,
		NextRefresh: r.NextRefresh,
		StateKey:    r.StateKey(),
	}
}
