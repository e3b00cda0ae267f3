package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/middleware"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// StudentHandler lets a parent manage their students
type StudentHandler struct {
	students *services.StudentService
	logger   logrus.FieldLogger
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(students *services.StudentService, logger logrus.FieldLogger) *StudentHandler {
	return &StudentHandler{students: students, logger: logger}
}

// ListStudents handles GET /api/v1/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	parentID, ok := middleware.CurrentParentID(c)
	if !ok {
		unauthorized(c)
		return
	}

	students, err := h.students.ListStudents(c.Request.Context(), parentID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// CreateStudent handles POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	parentID, ok := middleware.CurrentParentID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req models.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: name and grade are required")
		return
	}

	student, err := h.students.CreateStudent(c.Request.Context(), parentID, &req)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}
