package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// StudentRepository handles student database operations
type StudentRepository struct {
	db DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, parent_id, name, grade, created_at`

func (r *StudentRepository) ListStudentsByParent(ctx context.Context, parentID string) ([]models.Student, error) {
	students := []models.Student{}
	query := `SELECT ` + studentColumns + ` FROM students WHERE parent_id = $1 ORDER BY name, id`
	if err := r.db.SelectContext(ctx, &students, query, parentID); err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (r *StudentRepository) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, notFound(err, "student", id)
	}
	return &student, nil
}

// GetStudentsByIDs returns the students that exist among ids
func (r *StudentRepository) GetStudentsByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	students := []models.Student{}
	if len(ids) == 0 {
		return students, nil
	}
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get students: %w", err)
	}
	return students, nil
}

func (r *StudentRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (id, parent_id, name, grade, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		student.ID, student.ParentID, student.Name, student.Grade, student.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", translateError(err))
	}
	return nil
}
