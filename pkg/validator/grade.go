package validator

import (
	"errors"
	"strings"
)

// ErrInvalidGrade indicates a grade outside the served range
var ErrInvalidGrade = errors.New("grade must be one of 3rd, 4th, 5th, 6th, 7th")

// Grades lists the school grades the shuttle serves
var Grades = []string{"3rd", "4th", "5th", "6th", "7th"}

// ValidateGrade normalises a grade label ("5TH", " 5th ") and checks it is served
func ValidateGrade(grade string) (string, error) {
	g := strings.ToLower(strings.TrimSpace(grade))
	for _, valid := range Grades {
		if g == valid {
			return valid, nil
		}
	}
	return "", ErrInvalidGrade
}
