// Package events publishes booking lifecycle events
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// DefaultSubjectPrefix roots every booking subject
const DefaultSubjectPrefix = "shuttle.bookings"

// PublisherMetrics observes publish outcomes
type PublisherMetrics interface {
	EventPublished(eventType string)
	EventPublishFailed(eventType string)
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

type publishConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher sends booking events to shuttle.bookings.<route>.<type>
type NATSPublisher struct {
	nc      *nats.Conn
	conn    publishConn
	prefix  string
	metrics PublisherMetrics
	logger  logrus.FieldLogger
}

// NewNATSPublisher connects to NATS. m may be nil.
func NewNATSPublisher(url, prefix string, m PublisherMetrics, logger logrus.FieldLogger) (*NATSPublisher, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	nc, err := nats.Connect(url,
		nats.Name("shuttle-backend"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			logger.Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logger.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}

	return &NATSPublisher{nc: nc, conn: nc, prefix: prefix, metrics: m, logger: logger}, nil
}

// Close drains and closes the connection
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.logger.WithError(err).Warn("Failed to drain NATS connection")
		}
		p.nc.Close()
	}
}

// PublishBookingEvent marshals the event and publishes it on the route's subject
func (p *NATSPublisher) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	subject := Subject(p.prefix, event.RouteID, event.Type)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	start := time.Now()
	err = p.conn.Publish(subject, data)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.EventPublishFailed(string(event.Type))
		} else {
			p.metrics.EventPublished(string(event.Type))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.WithFields(logrus.Fields{
		"subject":    subject,
		"booking_id": event.BookingID,
	}).Debug("Booking event published")
	return nil
}

// Subject builds the subject for a route and event type
func Subject(prefix, routeID string, t models.BookingEventType) string {
	return prefix + "." + subjectToken(routeID) + "." + subjectToken(string(t))
}

// subjectToken makes s safe as a single NATS subject token
func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}

// NopPublisher drops every event
type NopPublisher struct{}

// PublishBookingEvent does nothing
func (NopPublisher) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	return nil
}
