package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/api/types"
	"github.com/urmzd/announce/pkg/db"
	"github.com/urmzd/announce/pkg/scheduler"
	"github.com/urmzd/announce/pkg/speech"
)

// spokenRawVariable holds the last text handed to the speech backend,
// after substitution and template rendering.
const spokenRawVariable = "spoken_announcement_raw"

// ActionsHandler handles plugin-wide actions
type ActionsHandler struct {
	store   *announce.Store
	sched   *scheduler.Scheduler
	speaker speech.Speaker
	vars    db.VariableStore
}

// NewActionsHandler creates a new actions handler
func NewActionsHandler(store *announce.Store, sched *scheduler.Scheduler, speaker speech.Speaker, vars db.VariableStore) *ActionsHandler {
	return &ActionsHandler{store: store, sched: sched, speaker: speaker, vars: vars}
}

// RefreshAll handles POST /actions/refresh
// @Summary      Refresh all announcements
// @Description  Recomputes every announcement immediately. Records not yet due keep their schedule.
// @Tags         actions
// @Produce      json
// @Success      200  {object}  types.RefreshResponse
// @Failure      500  {object}  types.ErrorResponse  "Store error"
// @Router       /actions/refresh [post]
func (h *ActionsHandler) RefreshAll(c *gin.Context) {
	if err := h.sched.Tick(c.Request.Context(), true); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "refresh_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.RefreshResponse{Status: "refreshed"})
}

// Speak handles POST /actions/speak
// @Summary      Speak an announcement
// @Description  Renders a stored announcement or free-form text and hands it to the speech backend
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        request  body      types.SpeakRequest  true  "What to speak"
// @Success      200      {object}  types.SpeakResponse
// @Failure      400      {object}  types.ErrorResponse  "Neither text nor announcement given"
// @Failure      404      {object}  types.ErrorResponse  "Announcement not found"
// @Failure      500      {object}  types.ErrorResponse  "Speech backend failed"
// @Router       /actions/speak [post]
func (h *ActionsHandler) Speak(c *gin.Context) {
	var req types.SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()

	raw := req.Text
	if raw == "" {
		if req.AnnouncementID == 0 {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_request",
				Message: "either text or announcement_id is required",
			})
			return
		}
		rec, err := h.store.Get(ctx, req.DeviceID, req.AnnouncementID)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		raw = rec.Text
	}

	spoken := h.sched.Render(ctx, raw)
	if _, err := h.vars.Set(ctx, spokenRawVariable, spoken); err != nil {
		log.Warn().Err(err).Msg("Failed to record spoken announcement variable")
	}
	if err := h.speaker.Speak(ctx, spoken); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "speech_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.SpeakResponse{Status: "spoken", Spoken: spoken})
}

// Export handles GET /announcements/export
// @Summary      Export the announcement store
// @Description  Returns the full store as canonical JSON
// @Tags         actions
// @Produce      json
// @Success      200  {string}  string  "Store JSON"
// @Failure      500  {object}  types.ErrorResponse  "Store error"
// @Router       /announcements/export [get]
func (h *ActionsHandler) Export(c *gin.Context) {
	data, err := h.store.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "store_error",
			Message: err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
