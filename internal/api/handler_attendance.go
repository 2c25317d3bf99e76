package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/store"
	"clinic-reservation-backend/internal/week"
)

type attendanceRequest struct {
	AttendanceType string `json:"attendance_type" binding:"required,attendance_status"`
}

// ListAttendance handles GET /api/clinic-attendances.
func (h *Handler) ListAttendance(c *gin.Context) {
	filter, err := h.attendanceFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	list, err := h.store.ListAttendance(c.Request.Context(), filter)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if list == nil {
		list = []model.Reservation{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) attendanceFilter(c *gin.Context) (store.AttendanceFilter, error) {
	var f store.AttendanceFilter

	if raw := c.Query("clinic_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, errors.New("clinic_id must be a positive integer")
		}
		f.ClinicID = id
	}
	if raw := c.Query("student_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, errors.New("student_id must be a positive integer")
		}
		f.StudentID = id
	}
	if raw := c.Query("date"); raw != "" {
		if _, err := time.Parse(week.DateLayout, raw); err != nil {
			return f, errors.New("date must be YYYY-MM-DD")
		}
		f.Date = raw
	}
	switch c.Query("week") {
	case "":
	case "current":
		now := h.now()
		f.WeekOf = &now
	default:
		return f, errors.New("week only accepts \"current\"")
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return f, errors.New("active must be a boolean")
		}
		f.ActiveOnly = active
	}
	return f, nil
}

// UpdateAttendance handles PATCH /api/clinic-attendances/:id.
func (h *Handler) UpdateAttendance(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, errors.New("id must be a positive integer"))
		return
	}

	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.store.UpdateAttendanceStatus(c.Request.Context(), id, model.AttendanceStatus(req.AttendanceType))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
