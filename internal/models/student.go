package models

import (
	"strings"
	"time"
)

// Student is a child owned by exactly one parent account
type Student struct {
	ID        string    `json:"id" db:"id"`
	ParentID  string    `json:"parent_id" db:"parent_id"`
	Name      string    `json:"name" db:"name"`
	Grade     string    `json:"grade" db:"grade"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BelongsTo reports whether the student is owned by the parent
func (s *Student) BelongsTo(parentID string) bool {
	return s.ParentID == parentID
}

// CreateStudentRequest represents the request to add a student
type CreateStudentRequest struct {
	Name  string `json:"name" binding:"required"`
	Grade string `json:"grade" binding:"required"`
}

// Normalize trims the request fields
func (r *CreateStudentRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Grade = strings.TrimSpace(r.Grade)
}
