package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

type fakeMetrics struct {
	published, failed int
}

func (m *fakeMetrics) EventPublished(string)        { m.published++ }
func (m *fakeMetrics) EventPublishFailed(string)    { m.failed++ }
func (m *fakeMetrics) PublishObserve(time.Duration) {}
func (m *fakeMetrics) NATSSetConnected(bool)        {}

func newTestPublisher(conn publishConn, m PublisherMetrics) *NATSPublisher {
	logger, _ := test.NewNullLogger()
	return &NATSPublisher{conn: conn, prefix: DefaultSubjectPrefix, metrics: m, logger: logger}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "shuttle.bookings.route-1.created", Subject(DefaultSubjectPrefix, "route-1", models.BookingEventCreated))
	assert.Equal(t, "shuttle.bookings.frisco_route.cancelled", Subject(DefaultSubjectPrefix, "frisco route", models.BookingEventCancelled))
	assert.Equal(t, "p._.created", Subject("p", "  ", models.BookingEventCreated))
	assert.Equal(t, "p.a_b_c.created", Subject("p", "a.b*c", models.BookingEventCreated))
}

func TestPublishBookingEvent(t *testing.T) {
	conn := &fakeConn{}
	m := &fakeMetrics{}
	p := newTestPublisher(conn, m)

	booking := &models.Booking{
		ID:        "b1",
		StudentID: "s1",
		RouteID:   "r1",
		StopID:    "st1",
		Date:      models.NewDate(2026, time.March, 10),
		TimeSlot:  models.TimeSlotMorning,
	}
	event := models.NewBookingEvent(models.BookingEventCreated, booking, time.Now())

	require.NoError(t, p.PublishBookingEvent(context.Background(), event))
	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "shuttle.bookings.r1.created", conn.subjects[0])
	assert.Equal(t, 1, m.published)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.Equal(t, "b1", decoded["booking_id"])
	assert.Equal(t, "2026-03-10", decoded["date"])
	assert.Equal(t, "morning", decoded["time_slot"])
	assert.Equal(t, "created", decoded["type"])
}

func TestPublishBookingEvent_Error(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	m := &fakeMetrics{}
	p := newTestPublisher(conn, m)

	err := p.PublishBookingEvent(context.Background(), models.BookingEvent{Type: models.BookingEventCancelled, RouteID: "r1"})
	assert.Error(t, err)
	assert.Equal(t, 1, m.failed)
	assert.Equal(t, 0, m.published)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.PublishBookingEvent(context.Background(), models.BookingEvent{}))
}
