package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clinic-reservation-backend/internal/model"
)

type flagRequest struct {
	Flag  string `json:"flag" binding:"required,student_flag"`
	Value *bool  `json:"value" binding:"required"`
}

type resetNoShowRequest struct {
	StudentIDs []int64 `json:"student_ids" binding:"required,min=1,dive,gt=0"`
}

type studentInput struct {
	Username string `json:"username" binding:"required,max=64"`
	Name     string `json:"name" binding:"required,max=128"`
	School   string `json:"school" binding:"max=128"`
	Grade    string `json:"grade" binding:"max=32"`
}

type upsertStudentsRequest struct {
	Students []studentInput `json:"students" binding:"required,min=1,dive"`
}

// UpsertStudents handles POST /api/students. Existing usernames get their
// profile refreshed; flags and no-show counts are kept.
func (h *Handler) UpsertStudents(c *gin.Context) {
	var req upsertStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	students := make([]model.Student, 0, len(req.Students))
	for _, in := range req.Students {
		students = append(students, model.Student{Username: in.Username, Name: in.Name, School: in.School, Grade: in.Grade})
	}
	if err := h.store.UpsertStudents(c.Request.Context(), students); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.flush()
	c.JSON(http.StatusOK, gin.H{"upserted": len(students)})
}

// ListStudents handles GET /api/students.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.store.ListStudents(c.Request.Context())
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if students == nil {
		students = []model.Student{}
	}
	c.JSON(http.StatusOK, students)
}

// UpdateStudentFlag handles PATCH /api/students/:id/flags.
func (h *Handler) UpdateStudentFlag(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, errors.New("id must be a positive integer"))
		return
	}

	var req flagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	student, err := h.store.UpdateStudentFlag(c.Request.Context(), id, model.StudentFlag(req.Flag), *req.Value)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// ResetNoShow handles POST /api/students/reset_no_show.
func (h *Handler) ResetNoShow(c *gin.Context) {
	var req resetNoShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.store.ResetNoShow(c.Request.Context(), req.StudentIDs)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
