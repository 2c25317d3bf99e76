package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/notification"
	"clinic-reservation-backend/internal/store"
	"clinic-reservation-backend/internal/week"
)

type placementRequest struct {
	UserID   int64 `json:"user_id" binding:"required,gt=0"`
	ClinicID int64 `json:"clinic_id" binding:"required,gt=0"`
}

type createClinicRequest struct {
	Day         string `json:"day" binding:"required"`
	Time        string `json:"time" binding:"required,datetime=15:04"`
	Room        string `json:"room" binding:"required,max=64"`
	Capacity    *int   `json:"capacity" binding:"omitempty,gt=0"`
	TeacherName string `json:"teacher_name" binding:"max=128"`
	Subject     string `json:"subject" binding:"max=64"`
	IsActive    *bool  `json:"is_active"`
}

type updateClinicRequest struct {
	Capacity *int  `json:"capacity" binding:"omitempty,gt=0"`
	IsActive *bool `json:"is_active"`
}

// ListClinics handles GET /api/clinics.
func (h *Handler) ListClinics(c *gin.Context) {
	clinics, err := h.store.ListClinics(c.Request.Context())
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if clinics == nil {
		clinics = []model.Clinic{}
	}
	c.JSON(http.StatusOK, clinics)
}

// CreateClinic handles POST /api/clinics.
func (h *Handler) CreateClinic(c *gin.Context) {
	var req createClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	day, err := week.ParseDay(req.Day)
	if err != nil {
		badRequest(c, err)
		return
	}

	clinic := model.Clinic{
		Day:      day,
		Time:     req.Time,
		Room:     req.Room,
		Capacity: h.defaultCapacity,
		IsActive: true,
	}
	if req.Capacity != nil {
		clinic.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		clinic.IsActive = *req.IsActive
	}
	if req.TeacherName != "" {
		clinic.Teacher = &model.Teacher{Name: req.TeacherName}
	}
	if req.Subject != "" {
		clinic.Subject = &model.Subject{Name: req.Subject}
	}

	if err := h.store.CreateClinic(c.Request.Context(), &clinic); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.flush()
	c.JSON(http.StatusCreated, clinic)
}

// UpdateClinic handles PATCH /api/clinics/:id.
func (h *Handler) UpdateClinic(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, errors.New("id must be a positive integer"))
		return
	}

	var req updateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Capacity == nil && req.IsActive == nil {
		badRequest(c, errors.New("nothing to update"))
		return
	}

	clinic, err := h.store.UpdateClinic(c.Request.Context(), id, store.ClinicPatch{Capacity: req.Capacity, IsActive: req.IsActive}, h.now())
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.flush()
	h.log.Info("Clinic updated", zap.Int64("clinic_id", id), zap.Int("capacity", clinic.Capacity), zap.Bool("is_active", clinic.IsActive))
	c.JSON(http.StatusOK, clinic)
}

// GetWeeklySchedule handles GET /api/clinics/weekly_schedule.
func (h *Handler) GetWeeklySchedule(c *gin.Context) {
	ws, err := h.store.WeeklySchedule(c.Request.Context(), h.now())
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

// Reserve handles POST /api/clinics/reserve.
func (h *Handler) Reserve(c *gin.Context) {
	var req placementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if h.reserveLimiter != nil && !h.reserveLimiter.Allow(strconv.FormatInt(req.UserID, 10)) {
		h.metrics.observeReserve("rate_limited")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited", "message": "잠시 후 다시 시도해 주세요."})
		return
	}

	out, err := h.store.Reserve(c.Request.Context(), req.UserID, req.ClinicID, h.now())
	if err != nil {
		h.metrics.observeReserve(outcomeOf(err))
		h.writeStoreError(c, err)
		return
	}
	h.metrics.observeReserve("reserved")
	h.flush()
	h.notify(notification.ReservedNotice(req.UserID, out.Clinic, out.Reservation.ExpectedClinicDate))

	h.log.Info("Clinic reserved",
		zap.Int64("student_id", req.UserID),
		zap.Int64("clinic_id", req.ClinicID),
		zap.Int("remaining_spots", out.RemainingSpots))

	c.JSON(http.StatusOK, gin.H{
		"message":         "예약이 완료되었습니다.",
		"remaining_spots": out.RemainingSpots,
		"reservation":     out.Reservation,
		"student":         out.Student,
	})
}

// Cancel handles POST /api/clinics/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	var req placementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	now := h.now()
	out, err := h.store.Cancel(c.Request.Context(), req.UserID, req.ClinicID, now)
	if err != nil {
		h.metrics.observeCancel(outcomeOf(err))
		h.writeStoreError(c, err)
		return
	}
	h.metrics.observeCancel("cancelled")
	h.flush()
	date := week.DateOf(out.Clinic.Day, now).Format(week.DateLayout)
	h.notify(notification.CancelledNotice(req.UserID, out.Clinic, date))

	c.JSON(http.StatusOK, gin.H{
		"message":         "예약이 취소되었습니다.",
		"remaining_spots": out.RemainingSpots,
	})
}
