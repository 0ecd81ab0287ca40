package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/stampclock/internal/stamp"
	"github.com/sadopc/stampclock/internal/tracking"
)

type RecordHandler struct {
	svc *tracking.Service
}

func NewRecordHandler(svc *tracking.Service) *RecordHandler {
	return &RecordHandler{svc: svc}
}

type statusResponse struct {
	UserID    int64 `json:"userId"`
	CheckedIn bool  `json:"checkedIn"`
}

type workedTimeResponse struct {
	RecordID        int64  `json:"recordId"`
	CheckedInMillis int64  `json:"checkedInMillis"`
	BreakMillis     int64  `json:"breakMillis"`
	WorkedMillis    int64  `json:"workedMillis"`
	Worked          string `json:"worked"`
}

// writeError maps service errors to status codes. Store failures get a
// generic body; the cause goes to the request log.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stamp.ErrInvalidRecord), errors.Is(err, stamp.ErrAlreadyCheckedIn):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, stamp.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, stamp.ErrRecordOpen), errors.Is(err, stamp.ErrNotCheckedIn):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, stamp.ErrSpanTooLong):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s %q", name, c.Param(name))})
		return 0, false
	}
	return v, true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s %q", name, v)})
		return 0, false
	}
	return n, true
}

func int64Query(c *gin.Context, name string) (int64, bool) {
	v := c.Query(name)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s %q", name, v)})
		return 0, false
	}
	return n, true
}

// ListByUser serves GET /stamp-records/all/:userId?page=&size=&sort=.
func (h *RecordHandler) ListByUser(c *gin.Context) {
	userID, ok := int64Param(c, "userId")
	if !ok {
		return
	}
	page, ok := intQuery(c, "page", 0)
	if !ok {
		return
	}
	size, ok := intQuery(c, "size", stamp.DefaultPageSize)
	if !ok {
		return
	}
	sort, err := stamp.ParseSort(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.ListByUser(c.Request.Context(), userID, stamp.PageRequest{Page: page, Size: size, Sort: sort})
	if err != nil {
		writeError(c, err)
		return
	}
	records := result.Records
	if records == nil {
		records = []stamp.StampRecord{}
	}
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.JSON(http.StatusOK, records)
}

// Get serves GET /stamp-records/:recordId.
func (h *RecordHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "recordId")
	if !ok {
		return
	}
	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Create serves POST /stamp-records. The body id is ignored.
func (h *RecordHandler) Create(c *gin.Context) {
	var r stamp.StampRecord
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
		return
	}
	r.ID = 0

	saved, err := h.svc.Create(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/stamp-records/%d", saved.ID))
	c.JSON(http.StatusCreated, saved)
}

// Update serves PUT /stamp-records/:recordId as a full replacement.
func (h *RecordHandler) Update(c *gin.Context) {
	id, ok := int64Param(c, "recordId")
	if !ok {
		return
	}
	var r stamp.StampRecord
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
		return
	}
	if _, err := h.svc.Update(c.Request.Context(), id, r); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete serves DELETE /stamp-records/:recordId.
func (h *RecordHandler) Delete(c *gin.Context) {
	id, ok := int64Param(c, "recordId")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Status serves GET /stamp-records/status/:userId.
func (h *RecordHandler) Status(c *gin.Context) {
	userID, ok := int64Param(c, "userId")
	if !ok {
		return
	}
	in, err := h.svc.IsCheckedIn(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{UserID: userID, CheckedIn: in})
}

// Range serves GET /stamp-records/range/:userId?start=&end=.
func (h *RecordHandler) Range(c *gin.Context) {
	userID, ok := int64Param(c, "userId")
	if !ok {
		return
	}
	start, ok := int64Query(c, "start")
	if !ok {
		return
	}
	end, ok := int64Query(c, "end")
	if !ok {
		return
	}
	records, err := h.svc.RecordsInCheckInRange(c.Request.Context(), userID, start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// WorkedTime serves GET /stamp-records/:recordId/worked-time.
func (h *RecordHandler) WorkedTime(c *gin.Context) {
	id, ok := int64Param(c, "recordId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	d, err := h.svc.CheckedInDuration(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	worked, err := h.svc.HoursWorked(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, workedTimeResponse{
		RecordID:        id,
		CheckedInMillis: d.Milliseconds(),
		BreakMillis:     (d - worked).Milliseconds(),
		WorkedMillis:    worked.Milliseconds(),
		Worked:          worked.String(),
	})
}

// Health reports whether the store answers. A nil ping always succeeds.
func Health(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
