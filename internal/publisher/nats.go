package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"transport-tracker/internal/geo"
	"transport-tracker/internal/mapview"
)

// NATSAdapter is a map adapter that publishes every command as JSON on
// <prefix>.<session>.<op> and reads widget input from <prefix>.<session>.events.
type NATSAdapter struct {
	nc          *nats.Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
	sub         *nats.Subscription
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func Connect(url string, m PublisherMetrics) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("transport-tracker"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Warn().Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Info().Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Info().Msg("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return nc, nil
}

// NewNATSAdapter scopes all subjects to one session.
func NewNATSAdapter(nc *nats.Conn, prefix, sessionID string, logSubjects bool, m PublisherMetrics) *NATSAdapter {
	return &NATSAdapter{
		nc:          nc,
		prefix:      subjectToken(prefix) + "." + subjectToken(sessionID),
		logSubjects: logSubjects,
		metrics:     m,
	}
}

// Subscribe forwards decoded widget events to handle. Malformed messages
// are logged and skipped.
func (p *NATSAdapter) Subscribe(handle func(mapview.Event)) error {
	subject := p.prefix + ".events"
	sub, err := p.nc.Subscribe(subject, func(msg *nats.Msg) {
		ev, err := mapview.DecodeEvent(msg.Data)
		if err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed event")
			return
		}
		handle(ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	p.sub = sub
	return nil
}

func (p *NATSAdapter) Close() {
	if p.sub != nil {
		_ = p.sub.Unsubscribe()
	}
}

func (p *NATSAdapter) UpsertMarker(id string, at geo.Coordinate, style mapview.MarkerStyle) {
	p.publish("marker."+subjectToken(id), mapview.UpsertMarkerCommand(id, at, style))
}

func (p *NATSAdapter) RemoveMarker(id string) {
	p.publish("marker."+subjectToken(id), mapview.RemoveMarkerCommand(id))
}

func (p *NATSAdapter) SetRouteStyle(routeID string, style mapview.RouteStyle) {
	p.publish("route."+subjectToken(routeID), mapview.RouteStyleCommand(routeID, style))
}

func (p *NATSAdapter) PanTo(at geo.Coordinate) {
	p.publish("camera", mapview.PanToCommand(at))
}

func (p *NATSAdapter) FlyTo(at geo.Coordinate, zoom float64) {
	p.publish("camera", mapview.FlyToCommand(at, zoom))
}

func (p *NATSAdapter) ShowSelection(info *mapview.SelectionInfo) {
	p.publish("panel", mapview.SelectionCommand(info))
}

func (p *NATSAdapter) ShowFilters(visible map[string]bool) {
	p.publish("panel", mapview.FiltersCommand(visible))
}

func (p *NATSAdapter) publish(suffix string, cmd mapview.Command) {
	subject := p.prefix + "." + suffix
	b, err := json.Marshal(cmd)
	if err != nil {
		log.Error().Err(err).Str("op", cmd.Op).Msg("marshal map command")
		return
	}
	if p.logSubjects {
		log.Debug().Str("subject", subject).Msg("nats publish")
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("nats publish error")
	}
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
