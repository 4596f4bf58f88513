package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/api/types"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/scheduler"
)

// SalutationsHandler handles salutation device configuration
type SalutationsHandler struct {
	devices db.DeviceStore
}

// NewSalutationsHandler creates a new salutations handler
func NewSalutationsHandler(devices db.DeviceStore) *SalutationsHandler {
	return &SalutationsHandler{devices: devices}
}

func (h *SalutationsHandler) salutationDevice(c *gin.Context) (*db.Device, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}

	dev, err := h.devices.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "registry_error",
			Message: err.Error(),
		})
		return nil, false
	}

	if dev.Type != db.DeviceTypeSalutations {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Device is not a salutations device",
		})
		return nil, false
	}
	return dev, true
}

// Get handles GET /devices/:id/salutations
// @Summary      Get salutation config
// @Description  Returns the hour boundaries and messages of a salutations device
// @Tags         salutations
// @Produce      json
// @Param        id   path      int  true  "Device id"
// @Success      200  {object}  announce.SalutationConfig
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id}/salutations [get]
func (h *SalutationsHandler) Get(c *gin.Context) {
	dev, ok := h.salutationDevice(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, scheduler.SalutationConfigFor(dev))
}

// Update handles PUT /devices/:id/salutations
// @Summary      Update salutation config
// @Description  Replaces the config; the hour boundaries must form an increasing chain
// @Tags         salutations
// @Accept       json
// @Produce      json
// @Param        id       path      int                        true  "Device id"
// @Param        request  body      announce.SalutationConfig  true  "New config"
// @Success      200      {object}  announce.SalutationConfig
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      422      {object}  types.ValidationErrorResponse  "Boundaries out of order"
// @Router       /devices/{id}/salutations [put]
func (h *SalutationsHandler) Update(c *gin.Context) {
	dev, ok := h.salutationDevice(c)
	if !ok {
		return
	}

	cfg := announce.DefaultSalutationConfig()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if verr := cfg.Validate(); verr != nil {
		c.JSON(http.StatusUnprocessableEntity, types.ValidationErrorResponse{
			Error:  "validation_failed",
			Fields: verr,
		})
		return
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "registry_error",
			Message: err.Error(),
		})
		return
	}
	if err := h.devices.SetConfig(c.Request.Context(), dev.ID, raw); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "registry_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, cfg)
}
