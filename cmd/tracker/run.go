package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"transport-tracker/internal/config"
	"transport-tracker/internal/mapview"
	"transport-tracker/internal/metrics"
	"transport-tracker/internal/publisher"
	"transport-tracker/internal/session"
	"transport-tracker/internal/wsmap"
)

func runCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run a map session and serve it to the configured map adapter",
		Flags: []cli.Flag{scenarioFlag()},
		Action: func(c *cli.Context) error {
			scenarioFile := cfg.ScenarioFile
			if c.IsSet("scenario") {
				scenarioFile = c.String("scenario")
			}
			return run(c.Context, cfg, scenarioFile)
		},
	}
}

func run(parent context.Context, cfg *config.Config, scenarioFile string) error {
	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w, err := loadWorld(ctx, cfg, scenarioFile)
	if err != nil {
		return err
	}

	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(frameInterval(cfg))
		srv := mcol.Serve(cfg.MetricsAddr)
		defer shutdown(srv)
	}

	sessionID := uuid.NewString()

	// Transports start only after the session exists.
	var sess *session.Session
	post := func(ev mapview.Event) {
		if !sess.Post(ev) {
			log.Warn().Str("kind", string(ev.Kind)).Msg("event dropped")
		}
	}

	var (
		adapter mapview.Adapter
		hub     *wsmap.Hub
		na      *publisher.NATSAdapter
	)
	switch cfg.Adapter {
	case config.AdapterWebSocket:
		var hm wsmap.Metrics
		if mcol != nil {
			hm = mcol.Hub()
		}
		hub = wsmap.NewHub(post, hm)
		adapter = hub

	case config.AdapterNATS:
		var pm publisher.PublisherMetrics
		if mcol != nil {
			pm = mcol.Publisher()
		}
		nc, err := publisher.Connect(cfg.NATSURL, pm)
		if err != nil {
			return err
		}
		defer nc.Close()
		na = publisher.NewNATSAdapter(nc, cfg.NATSSubjectPrefix, sessionID, cfg.LogNATSSubjects, pm)
		adapter = na

	default:
		adapter = mapview.LogAdapter{Log: log.With().Str("session", sessionID).Logger()}
	}

	sess, err = session.New(session.Options{
		ID:            sessionID,
		Adapter:       adapter,
		Routes:        w.routes,
		Fleet:         w.fleet,
		Visible:       w.scenario.Visibility(),
		FrameInterval: frameInterval(cfg),
		FollowZoom:    cfg.FollowZoom,
		Center:        w.scenario.Center,
		Zoom:          w.scenario.Zoom,
		Metrics:       mcol,
	})
	if err != nil {
		return err
	}

	if na != nil {
		if err := na.Subscribe(post); err != nil {
			return err
		}
		defer na.Close()
	}

	g, gctx := errgroup.WithContext(ctx)
	if hub != nil {
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("map websocket listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			hub.Close()
			shutdown(srv)
			return nil
		})
	}

	sess.Start(gctx)
	g.Go(func() error {
		<-gctx.Done()
		sess.Close()
		return nil
	})

	err = g.Wait()
	log.Info().Msg("shutdown complete")
	return err
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
