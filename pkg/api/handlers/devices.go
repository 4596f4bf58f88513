package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/api/types"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/host"
)

// DevicesHandler handles registry device endpoints
type DevicesHandler struct {
	devices   db.DeviceStore
	states    db.StateStore
	vars      db.VariableStore
	store     *announce.Store
	profileID int64
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(devices db.DeviceStore, states db.StateStore, vars db.VariableStore, store *announce.Store, profileID int64) *DevicesHandler {
	return &DevicesHandler{devices: devices, states: states, vars: vars, store: store, profileID: profileID}
}

func toDevice(d *db.Device) types.Device {
	return types.Device{
		ID:      d.ID,
		Name:    d.Name,
		Type:    d.Type,
		Enabled: d.Enabled,
		Config:  d.Config,
	}
}

func writeRegistryError(c *gin.Context, err error) {
	if errors.Is(err, db.ErrDeviceNotFound) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: "Device not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, types.ErrorResponse{
		Error:   "registry_error",
		Message: err.Error(),
	})
}

// List handles GET /devices
// @Summary      List devices
// @Description  Returns every registered announcement and salutation device
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.ListDevicesResponse
// @Failure      500  {object}  types.ErrorResponse  "Registry error"
// @Router       /devices [get]
func (h *DevicesHandler) List(c *gin.Context) {
	devices, err := h.devices.List(c.Request.Context(), h.profileID)
	if err != nil {
		writeRegistryError(c, err)
		return
	}

	result := []types.Device{}
	for _, d := range devices {
		result = append(result, toDevice(d))
	}
	c.JSON(http.StatusOK, types.ListDevicesResponse{Devices: result, Count: len(result)})
}

// Get handles GET /devices/:id
// @Summary      Get device details
// @Tags         devices
// @Produce      json
// @Param        id   path      int  true  "Device id"
// @Success      200  {object}  types.DeviceResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id} [get]
func (h *DevicesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	d, err := h.devices.Get(c.Request.Context(), id)
	if err != nil {
		writeRegistryError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DeviceResponse{Device: toDevice(d)})
}

// Create handles POST /devices
// @Summary      Create a device
// @Description  Registers a new announcements or salutations device and seeds its store group
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        request  body      types.CreateDeviceRequest  true  "New device"
// @Success      201      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request or unknown type"
// @Router       /devices [post]
func (h *DevicesHandler) Create(c *gin.Context) {
	var req types.CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "name and type are required",
		})
		return
	}

	ctx := c.Request.Context()
	dev := &db.Device{
		ProfileID: h.profileID,
		Name:      req.Name,
		Type:      req.Type,
		Enabled:   true,
	}
	if err := h.devices.Create(ctx, dev); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if dev.Type == db.DeviceTypeAnnouncements {
		err := h.store.Mutate(ctx, func(col announce.Collection) error {
			if col[dev.ID] == nil {
				col[dev.ID] = map[int64]*announce.Record{}
			}
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Int64("device", dev.ID).Msg("Failed to seed announcement group")
		}
	}

	c.JSON(http.StatusCreated, types.DeviceResponse{Device: toDevice(dev)})
}

// Update handles PATCH /devices/:id
// @Summary      Rename or enable a device
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id       path      int                        true  "Device id"
// @Param        request  body      types.UpdateDeviceRequest  true  "Fields to change"
// @Success      200      {object}  types.DeviceResponse
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id} [patch]
func (h *DevicesHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	if req.Name != nil {
		if err := h.devices.Rename(ctx, id, *req.Name); err != nil {
			writeRegistryError(c, err)
			return
		}
	}
	if req.Enabled != nil {
		if err := h.devices.SetEnabled(ctx, id, *req.Enabled); err != nil {
			writeRegistryError(c, err)
			return
		}
	}

	d, err := h.devices.Get(ctx, id)
	if err != nil {
		writeRegistryError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DeviceResponse{Device: toDevice(d)})
}

// Delete handles DELETE /devices/:id
// @Summary      Delete a device
// @Description  Removes the device, its published states and its announcement group
// @Tags         devices
// @Produce      json
// @Param        id   path  int  true  "Device id"
// @Success      204  "Deleted"
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id} [delete]
func (h *DevicesHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.devices.Delete(ctx, id); err != nil {
		writeRegistryError(c, err)
		return
	}

	if err := h.states.DeleteForDevice(ctx, id); err != nil {
		log.Warn().Err(err).Int64("device", id).Msg("Failed to drop device states")
	}
	err := h.store.Mutate(ctx, func(col announce.Collection) error {
		delete(col, id)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Int64("device", id).Msg("Failed to drop announcement group")
	}

	c.Status(http.StatusNoContent)
}

// States handles GET /devices/:id/states
// @Summary      List published states
// @Description  Returns the current rendered value of every state the device has published
// @Tags         devices
// @Produce      json
// @Param        id   path      int  true  "Device id"
// @Success      200  {object}  types.ListStatesResponse
// @Failure      500  {object}  types.ErrorResponse  "Registry error"
// @Router       /devices/{id}/states [get]
func (h *DevicesHandler) States(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	states, err := h.states.List(c.Request.Context(), id)
	if err != nil {
		writeRegistryError(c, err)
		return
	}

	result := []types.StateEntry{}
	for _, s := range states {
		result = append(result, types.StateEntry{Key: s.Key, Value: s.Value, UpdatedAt: s.UpdatedAt})
	}
	c.JSON(http.StatusOK, types.ListStatesResponse{States: result, Count: len(result)})
}

// Variables handles GET /variables
// @Summary      List host variables
// @Description  Returns the variables available for substitution markers
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.ListVariablesResponse
// @Failure      500  {object}  types.ErrorResponse  "Registry error"
// @Router       /variables [get]
func (h *DevicesHandler) Variables(c *gin.Context) {
	vars, err := h.vars.List(c.Request.Context())
	if err != nil {
		writeRegistryError(c, err)
		return
	}

	result := []types.Variable{}
	for _, v := range vars {
		result = append(result, types.Variable{ID: v.ID, Name: v.Name, Value: v.Value})
	}
	c.JSON(http.StatusOK, types.ListVariablesResponse{Variables: result, Count: len(result)})
}

// Marker handles POST /markers
// @Summary      Build a substitution marker
// @Description  Returns the marker string that resolves to the given device state
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        request  body      types.MarkerRequest  true  "Device and state"
// @Success      200      {object}  types.MarkerResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Router       /markers [post]
func (h *DevicesHandler) Marker(c *gin.Context) {
	var req types.MarkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "device_id and state_key are required",
		})
		return
	}

	c.JSON(http.StatusOK, types.MarkerResponse{Marker: host.Marker(req.DeviceID, req.StateKey)})
}
