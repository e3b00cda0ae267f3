package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/pkg/validator"
)

// StudentService manages the students of a parent
type StudentService struct {
	students StudentStore
	clock    Clock
	logger   logrus.FieldLogger
}

// NewStudentService creates a new StudentService
func NewStudentService(students StudentStore, clock Clock, logger logrus.FieldLogger) *StudentService {
	return &StudentService{students: students, clock: clock, logger: logger}
}

// ListStudents returns the parent's students
func (s *StudentService) ListStudents(ctx context.Context, parentID string) ([]models.Student, error) {
	students, err := s.students.ListStudentsByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// CreateStudent adds a student owned by the parent
func (s *StudentService) CreateStudent(ctx context.Context, parentID string, req *models.CreateStudentRequest) (*models.Student, error) {
	req.Normalize()
	if req.Name == "" {
		return nil, domain.ValidationError{Field: "name", Msg: "name is required"}
	}
	grade, err := validator.ValidateGrade(req.Grade)
	if err != nil {
		return nil, domain.ValidationError{Field: "grade", Msg: err.Error(), Err: err}
	}

	student := &models.Student{
		ID:        uuid.NewString(),
		ParentID:  parentID,
		Name:      req.Name,
		Grade:     grade,
		CreatedAt: s.clock.Now(),
	}
	if err := s.students.CreateStudent(ctx, student); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"parent_id":  parentID,
		"student_id": student.ID,
	}).Info("Student added")
	return student, nil
}
