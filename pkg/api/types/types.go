// Package types holds API request and response DTOs.
package types

import (
	"encoding/json"
	"time"
)

// --- Request DTOs ---

// AnnouncementRequest is the body for creating or editing an
// announcement. Refresh is a string so the API surfaces the same
// "not a number" validation failure as any other bad value.
type AnnouncementRequest struct {
	Name    string `json:"name"`
	Text    string `json:"text"`
	Refresh string `json:"refresh"`
}

// CreateDeviceRequest is the request body for POST /devices
type CreateDeviceRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// UpdateDeviceRequest is the request body for PATCH /devices/:id
type UpdateDeviceRequest struct {
	Name    *string `json:"name,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// SpeakRequest is the request body for POST /actions/speak. Either a
// stored announcement is named or free-form text is given.
type SpeakRequest struct {
	DeviceID       int64  `json:"device_id,omitempty"`
	AnnouncementID int64  `json:"announcement_id,omitempty"`
	Text           string `json:"text,omitempty"`
}

// MarkerRequest is the request body for POST /markers
type MarkerRequest struct {
	DeviceID int64  `json:"device_id" binding:"required"`
	StateKey string `json:"state_key" binding:"required"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ValidationErrorResponse carries per-field validation messages.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

// Announcement is the wire form of a stored announcement.
type Announcement struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Text        string  `json:"text"`
	Refresh     float64 `json:"refresh"`
	NextRefresh string  `json:"next_refresh"`
	StateKey    string  `json:"state_key"`
}

// ListAnnouncementsResponse is returned from GET /devices/:id/announcements
type ListAnnouncementsResponse struct {
	Announcements []Announcement `json:"announcements"`
	Count         int            `json:"count"`
}

// AnnouncementResponse wraps a single announcement.
type AnnouncementResponse struct {
	Announcement Announcement `json:"announcement"`
}

// Device is the wire form of a registry device.
type Device struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Enabled bool            `json:"enabled"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// ListDevicesResponse is returned from GET /devices
type ListDevicesResponse struct {
	Devices []Device `json:"devices"`
	Count   int      `json:"count"`
}

// DeviceResponse wraps a single device.
type DeviceResponse struct {
	Device Device `json:"device"`
}

// RefreshResponse is returned from the refresh actions.
type RefreshResponse struct {
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
}

// SpeakResponse is returned from POST /actions/speak
type SpeakResponse struct {
	Status string `json:"status"`
	Spoken string `json:"spoken"`
}

// StateEntry is one published device state.
type StateEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListStatesResponse is returned from GET /devices/:id/states
type ListStatesResponse struct {
	States []StateEntry `json:"states"`
	Count  int          `json:"count"`
}

// Variable is the wire form of a host variable.
type Variable struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ListVariablesResponse is returned from GET /variables
type ListVariablesResponse struct {
	Variables []Variable `json:"variables"`
	Count     int        `json:"count"`
}

// MarkerResponse is returned from POST /markers
type MarkerResponse struct {
	Marker string `json:"marker"`
}
