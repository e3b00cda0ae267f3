package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// slotAndDate reads ?time_slot= and ?date=, defaulting to the morning run of today
func slotAndDate(c *gin.Context, clock services.Clock) (models.TimeSlot, models.Date, error) {
	slot := models.TimeSlot(strings.ToLower(strings.TrimSpace(c.DefaultQuery("time_slot", string(models.TimeSlotMorning)))))
	if !slot.Valid() {
		return "", models.Date{}, domain.ValidationError{Field: "time_slot", Msg: "must be morning or afternoon"}
	}

	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return slot, clock.Today(), nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return "", models.Date{}, domain.ValidationError{Field: "date", Msg: err.Error(), Err: err}
	}
	return slot, date, nil
}
