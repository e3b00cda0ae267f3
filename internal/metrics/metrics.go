// Package metrics exposes Prometheus collectors for the booking service
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

type Collector struct {
	reg *prometheus.Registry

	BookingsCreated   *prometheus.CounterVec // route, slot
	BookingsRejected  *prometheus.CounterVec // reason
	BookingsCancelled *prometheus.CounterVec // route, slot
	PickupToggles     *prometheus.CounterVec // state: picked_up|cleared

	EventsPublished   *prometheus.CounterVec // type
	EventPublishErrs  *prometheus.CounterVec // type
	NATSConnected     prometheus.Gauge
	PublishDuration   prometheus.Histogram
	HTTPRequestTiming *prometheus.HistogramVec // method, route, status
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		BookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_bookings_created_total",
			Help: "Total confirmed bookings created.",
		}, []string{"route", "slot"}),
		BookingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_bookings_rejected_total",
			Help: "Total booking attempts rejected, by reason.",
		}, []string{"reason"}),
		BookingsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_bookings_cancelled_total",
			Help: "Total bookings cancelled.",
		}, []string{"route", "slot"}),
		PickupToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_pickup_toggles_total",
			Help: "Total pickup toggles, by resulting state.",
		}, []string{"state"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_events_published_total",
			Help: "Total booking events published to NATS.",
		}, []string{"type"}),
		EventPublishErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_event_publish_errors_total",
			Help: "Total booking event publish errors.",
		}, []string{"type"}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shuttle_event_publish_duration_seconds",
			Help:    "Duration to marshal and publish a booking event.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		HTTPRequestTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shuttle_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.BookingsCreated, c.BookingsRejected, c.BookingsCancelled, c.PickupToggles,
		c.EventsPublished, c.EventPublishErrs, c.NATSConnected, c.PublishDuration,
		c.HTTPRequestTiming,
	)
	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) BookingCreated(routeID string, slot models.TimeSlot) {
	c.BookingsCreated.WithLabelValues(routeID, string(slot)).Inc()
}

func (c *Collector) BookingRejected(reason string) {
	c.BookingsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) BookingCancelled(routeID string, slot models.TimeSlot) {
	c.BookingsCancelled.WithLabelValues(routeID, string(slot)).Inc()
}

func (c *Collector) PickupToggled(pickedUp bool) {
	state := "cleared"
	if pickedUp {
		state = "picked_up"
	}
	c.PickupToggles.WithLabelValues(state).Inc()
}

func (c *Collector) EventPublished(eventType string) {
	c.EventsPublished.WithLabelValues(eventType).Inc()
}

func (c *Collector) EventPublishFailed(eventType string) {
	c.EventPublishErrs.WithLabelValues(eventType).Inc()
}

func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

// GinMiddleware records request latency labelled by the matched route template
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.HTTPRequestTiming.
			WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
