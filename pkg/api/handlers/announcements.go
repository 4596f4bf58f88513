package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/announce/pkg/announce"
	"github.com/urmzd/announce/pkg/api/types"
	"github.com/urmzd/announce/pkg/scheduler"
)

// AnnouncementsHandler handles announcement CRUD endpoints
type AnnouncementsHandler struct {
	store *announce.Store
	sched *scheduler.Scheduler
}

// NewAnnouncementsHandler creates a new announcements handler
func NewAnnouncementsHandler(store *announce.Store, sched *scheduler.Scheduler) *AnnouncementsHandler {
	return &AnnouncementsHandler{store: store, sched: sched}
}

func toAnnouncement(rec *announce.Record) types.Announcement {
	return types.Announcement{
		ID:          rec.ID,
		Name:        rec.Name,
		Text:        rec.Text,
		Refresh:     rec.RefreshMinutes,
		NextRefresh: rec.NextRefresh,
		StateKey:    rec.StateKey(),
	}
}

func sortAnnouncements(list []types.Announcement) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: name + " must be an integer",
		})
		return 0, false
	}
	return id, true
}

// writeStoreError maps store failures to API responses. Field-level
// validation failures come back as 422 with the per-field map.
func writeStoreError(c *gin.Context, err error) {
	var verr announce.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, types.ValidationErrorResponse{
			Error:  "validation_failed",
			Fields: verr,
		})
	case errors.Is(err, announce.ErrNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: "Announcement not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "store_error",
			Message: err.Error(),
		})
	}
}

// List handles GET /devices/:id/announcements
// @Summary      List announcements
// @Description  Returns the announcements of one device, sorted by name
// @Tags         announcements
// @Produce      json
// @Param        id   path      int  true  "Device id"
// @Success      200  {object}  types.ListAnnouncementsResponse
// @Failure      500  {object}  types.ErrorResponse  "Store error"
// @Router       /devices/{id}/announcements [get]
func (h *AnnouncementsHandler) List(c *gin.Context) {
	devID, ok := pathID(c, "id")
	if !ok {
		return
	}

	col, err := h.store.All(c.Request.Context())
	if err != nil {
		writeStoreError(c, err)
		return
	}

	result := []types.Announcement{}
	for _, rec := range col[devID] {
		result = append(result, toAnnouncement(rec))
	}
	sortAnnouncements(result)

	c.JSON(http.StatusOK, types.ListAnnouncementsResponse{
		Announcements: result,
		Count:         len(result),
	})
}

// Get handles GET /devices/:id/announcements/:aid
// @Summary      Get one announcement
// @Tags         announcements
// @Produce      json
// @Param        id   path      int  true  "Device id"
// @Param        aid  path      int  true  "Announcement id"
// @Success      200  {object}  types.AnnouncementResponse
// @Failure      404  {object}  types.ErrorResponse  "Announcement not found"
// @Router       /devices/{id}/announcements/{aid} [get]
func (h *AnnouncementsHandler) Get(c *gin.Context) {
	devID, ok := pathID(c, "id")
	if !ok {
		return
	}
	aid, ok := pathID(c, "aid")
	if !ok {
		return
	}

	rec, err := h.store.Get(c.Request.Context(), devID, aid)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.AnnouncementResponse{Announcement: toAnnouncement(rec)})
}

// Create handles POST /devices/:id/announcements
// @Summary      Create an announcement
// @Description  Creates an announcement; a duplicate name is suffixed with " X"
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        id       path      int                        true  "Device id"
// @Param        request  body      types.AnnouncementRequest  true  "New announcement"
// @Success      201      {object}  types.AnnouncementResponse
// @Failure      422      {object}  types.ValidationErrorResponse  "Validation failed"
// @Failure      500      {object}  types.ErrorResponse  "Store error"
// @Router       /devices/{id}/announcements [post]
func (h *AnnouncementsHandler) Create(c *gin.Context) {
	devID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	id, err := h.store.Create(ctx, devID, req.Name, req.Text, req.Refresh)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	rec, err := h.store.Get(ctx, devID, id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.AnnouncementResponse{Announcement: toAnnouncement(rec)})
}

// Edit handles PUT /devices/:id/announcements/:aid
// @Summary      Edit an announcement
// @Description  Updates name, text and refresh interval; the refresh schedule is not perturbed
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        id       path      int                        true  "Device id"
// @Param        aid      path      int                        true  "Announcement id"
// @Param        request  body      types.AnnouncementRequest  true  "Updated fields"
// @Success      200      {object}  types.AnnouncementResponse
// @Failure      404      {object}  types.ErrorResponse  "Announcement not found"
// @Failure      422      {object}  types.ValidationErrorResponse  "Validation failed"
// @Router       /devices/{id}/announcements/{aid} [put]
func (h *AnnouncementsHandler) Edit(c *gin.Context) {
	devID, ok := pathID(c, "id")
	if !ok {
		return
	}
	aid, ok := pathID(c, "aid")
	if !ok {
		return
	}

	var req types.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.Edit(ctx, devID, aid, req.Name, req.Text, req.Refresh); err != nil {
		writeStoreError(c, err)
		return
	}

	rec, err := h.store.Get(ctx, devID, aid)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.AnnouncementResponse{Announcement: toAnnouncement(rec)})
}

// Duplicate handles POST /devices/:id/announcements/:aid/duplicate
// @Summary      Duplicate an announcement
// @Description  Copies an announcement under a new id with a " copy" name suffix
// @Tags         announcements
// @Produce      json
// @Param        id   path      int  true  "Device id"
// @Param        aid  path      int  true  "Announcement id"
// @Success      201  {object}  types.AnnouncementResponse
// @Failure      404  {object}  types.ErrorResponse  "Announcement not found"
// @Router       /devices/{id}/announcements/{aid}/duplicate [post]
func (h *AnnouncementsHandler) Duplicate(c *gin.Context) {
	devID, ok := pathID(c, "id")
	if !ok {
		return
	}
	aid, ok := pathID(c, "aid")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	newID, err := h.store.Duplicate(ctx, devID, aid)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	rec, err := h.store.Get(ctx, devID, newID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.AnnouncementResponse{Announcement: toAnnouncement(rec)})
}

// Delete handles DELETE /devices/:id/announcements/:aid
// @Summary      Delete an announcement
// @Tags         announcements
// @Produce      json
// @Param        id   path  int  true  "Device id"
// @Param        aid  path  int  true  "Announcement id"
// @Success      204  "Deleted"
// @Failure      404  {object}  types.ErrorResponse  "Announcement not found"
// @Router       /devices/{id}/announcements/{aid} [delete]
func (h *AnnouncementsHandler) Delete(c *gin.Context) {
	devID, ok := pathID(c, "id")
	if !ok {
		return
	}
	aid, ok := pathID(c, "aid")
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), devID, aid); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh handles POST /devices/:id/announcements/:aid/refresh
// @Summary      Refresh one announcement
// @Description  Recomputes and republishes a single announcement without moving its schedule
// @Tags         announcements
// @Produce      json
// @Param        id   path      int  true  "Device id"
// @Param        aid  path      int  true  "Announcement id"
// @Success      200  {object}  types.RefreshResponse
// @Failure      404  {object}  types.ErrorResponse  "Announcement not found"
// @Router       /devices/{id}/announcements/{aid}/refresh [post]
func (h *AnnouncementsHandler) Refresh(c *gin.Context) {
	devID, ok := pathID(c, "id")
	if !ok {
		return
	}
	aid, ok := pathID(c, "aid")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	rec, err := h.store.Get(ctx, devID, aid)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	result, err := h.sched.RefreshOne(ctx, devID, rec.StateKey())
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.RefreshResponse{Status: "refreshed", Result: result})
}
