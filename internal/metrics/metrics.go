package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Collector struct {
	reg *prometheus.Registry

	FleetSize      *prometheus.GaugeVec // category label
	VisibleMarkers prometheus.Gauge
	Sessions       prometheus.Gauge

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram

	AdapterCalls *prometheus.CounterVec // op label
	DroppedCalls *prometheus.CounterVec // op label, calls after teardown
	FollowPans   prometheus.Counter
	Selections   prometheus.Counter
	Events       *prometheus.CounterVec // kind label

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	WSClients prometheus.Gauge
	WSDropped prometheus.Counter

	FrameInterval prometheus.Gauge // seconds
}

func NewCollector(frameInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		FleetSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tracker_fleet_vehicles",
			Help: "Vehicles in the simulated fleet.",
		}, []string{"category"}),
		VisibleMarkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_visible_markers",
			Help: "Markers currently shown after filtering.",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_sessions",
			Help: "Running view sessions.",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_ticks_total",
			Help: "Render loop ticks executed.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_tick_duration_seconds",
			Help:    "Duration of one frame: motion, marker updates and camera follow.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 15),
		}),
		AdapterCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_adapter_calls_total",
			Help: "Calls made to the map adapter.",
		}, []string{"op"}),
		DroppedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_adapter_dropped_calls_total",
			Help: "Map adapter calls dropped after teardown.",
		}, []string{"op"}),
		FollowPans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_follow_pans_total",
			Help: "Camera pans issued while following a vehicle.",
		}),
		Selections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_selections_total",
			Help: "Vehicle selections.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_events_total",
			Help: "Input events handled, by kind.",
		}, []string{"kind"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_publish_duration_seconds",
			Help:    "Duration to marshal and send one map command.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_ws_clients",
			Help: "Connected WebSocket map clients.",
		}),
		WSDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_ws_dropped_messages_total",
			Help: "Commands not queued to a slow WebSocket client.",
		}),
		FrameInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_frame_interval_seconds",
			Help: "Configured render loop interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.FleetSize, c.VisibleMarkers, c.Sessions,
		c.Ticks, c.TickDuration,
		c.AdapterCalls, c.DroppedCalls, c.FollowPans, c.Selections, c.Events,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.WSClients, c.WSDropped, c.FrameInterval,
	)

	c.FrameInterval.Set(frameInterval.Seconds())

	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listening")
	return srv
}

// Publisher adapts the collector to the publisher's metrics callbacks.
func (c *Collector) Publisher() *PublisherMetrics { return &PublisherMetrics{c: c} }

type PublisherMetrics struct{ c *Collector }

func (p *PublisherMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *PublisherMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *PublisherMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *PublisherMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}

// Hub adapts the collector to the WebSocket hub's metrics callbacks.
func (c *Collector) Hub() *HubMetrics { return &HubMetrics{c: c} }

type HubMetrics struct{ c *Collector }

func (h *HubMetrics) SetClients(n int) { h.c.WSClients.Set(float64(n)) }
func (h *HubMetrics) Dropped()         { h.c.WSDropped.Inc() }
