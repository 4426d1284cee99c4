package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/examportal/backend/core"
	"github.com/examportal/backend/service"
)

// AdminHandlers serves the /api/admin routes.
type AdminHandlers struct {
	adminService *service.AdminService
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(adminService *service.AdminService) *AdminHandlers {
	return &AdminHandlers{adminService: adminService}
}

// CreateExam handles POST /exams?examinerId=&questionIds=
func (h *AdminHandlers) CreateExam(c *gin.Context) {
	examinerID, err := strconv.ParseInt(c.Query("examinerId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid examinerId", err)
		return
	}
	questionIDs, err := parseIDList(c.QueryArray("questionIds"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid questionIds", err)
		return
	}

	var exam core.Exam
	if err := c.ShouldBindJSON(&exam); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid request", err)
		return
	}

	created, err := h.adminService.CreateExam(c.Request.Context(), exam, examinerID, questionIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// GetExam handles GET /exams/:id
func (h *AdminHandlers) GetExam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	exam, err := h.adminService.GetExam(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// UpdateExam handles PUT /exams/:id
func (h *AdminHandlers) UpdateExam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var details core.Exam
	if err := c.ShouldBindJSON(&details); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid request", err)
		return
	}

	updated, err := h.adminService.UpdateExam(c.Request.Context(), id, details)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteExam handles DELETE /exams/:id
func (h *AdminHandlers) DeleteExam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteExam(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// AddQuestionsToExam handles PUT /exams/:id/questions?questionIds=
func (h *AdminHandlers) AddQuestionsToExam(c *gin.Context) {
	examID, ok := pathID(c, "id")
	if !ok {
		return
	}
	questionIDs, err := parseIDList(c.QueryArray("questionIds"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid questionIds", err)
		return
	}

	if _, err := h.adminService.AddQuestionsToExam(c.Request.Context(), examID, questionIDs); err != nil {
		h.fail(c, err)
		return
	}
	c.String(http.StatusOK, "Questions added to exam.")
}

// CreateQuestion handles POST /questions
func (h *AdminHandlers) CreateQuestion(c *gin.Context) {
	var question core.Question
	if err := c.ShouldBindJSON(&question); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid request", err)
		return
	}

	created, err := h.adminService.CreateQuestion(c.Request.Context(), question)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// UpdateQuestion handles PUT /questions/:id
func (h *AdminHandlers) UpdateQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var details core.Question
	if err := c.ShouldBindJSON(&details); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid request", err)
		return
	}

	updated, err := h.adminService.UpdateQuestion(c.Request.Context(), id, details)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteQuestion handles DELETE /questions/:id
func (h *AdminHandlers) DeleteQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteQuestion(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// AssignRole handles PUT /users/:id/role?role=
func (h *AdminHandlers) AssignRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.AssignRole(c.Request.Context(), id, c.Query("role"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Resource not found", err)
	case errors.Is(err, core.ErrInvalidArgument):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidPayload, err.Error(), err)
	default:
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", err)
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidPayload, "Invalid "+name, err)
		return 0, false
	}
	return id, true
}

// parseIDList accepts both ?ids=1&ids=2 and ?ids=1,2.
func parseIDList(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
