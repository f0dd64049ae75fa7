// Package gateway wires the gateway's components together: the
// process-wide agent state, the optional planter simulator, the optional
// GNSS coordinator, and a session factory that the transport layer calls
// once per accepted connection.
package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/fieldgate/agent/internal/agentstate"
	"github.com/fieldgate/agent/internal/config"
	"github.com/fieldgate/agent/internal/geo"
	"github.com/fieldgate/agent/internal/gnsscoord"
	"github.com/fieldgate/agent/internal/implement"
	"github.com/fieldgate/agent/internal/metrics"
	"github.com/fieldgate/agent/internal/planter"
	"github.com/fieldgate/agent/internal/route"
	"github.com/fieldgate/agent/internal/session"
	"github.com/fieldgate/agent/internal/transport"
)

// Service is the running gateway: the TCP listener, the planter
// simulator, and their shared collaborators.
type Service struct {
	cfg    config.Config
	logger logrus.FieldLogger

	state            *agentstate.State
	implementProfile implement.Profile
	metrics          *metrics.Registry
	simulator        *planter.Simulator
	coordinator      gnsscoord.Coordinator
	watcher          *config.Watcher

	listener      *transport.Listener
	metricsServer *http.Server
}

// New builds a Service from cfg. It does not yet accept connections;
// call Start for that.
func New(cfg config.Config, logger logrus.FieldLogger) (*Service, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("component", "gateway")

	profile, err := implement.Load(cfg.ImplementProfilePath, logger)
	if err != nil {
		return nil, fmt.Errorf("load implement profile: %w", err)
	}

	reg := prometheus.NewRegistry()
	metricsRegistry := metrics.New(reg)

	svc := &Service{
		cfg:              cfg,
		logger:           logger,
		state:            agentstate.New(metricsRegistry),
		implementProfile: profile,
		metrics:          metricsRegistry,
	}

	if cfg.GnssSerialPort != "" {
		coordinator, err := gnsscoord.NewSerialCoordinator(cfg.GnssSerialPort, cfg.GnssBaudRate, logger)
		if err != nil {
			return nil, fmt.Errorf("open GNSS coordinator: %w", err)
		}
		svc.coordinator = coordinator
	}

	anchor := geo.Anchor{BaseLat: cfg.BaseLat, BaseLon: cfg.BaseLon}

	if cfg.SimulatorEnabled {
		params := planter.Params{
			ImplementProfile: &svc.implementProfile,
			FieldLengthM:     cfg.FieldLengthM,
			HeadlandLengthM:  cfg.HeadlandLengthM,
			SpeedMps:         cfg.SpeedMps,
			SampleRateHz:     cfg.SampleRateHz,
			PassesPerCycle:   cfg.PassesPerCycle,
			Anchor:           anchor,
			AltitudeM:        cfg.AltitudeM,
			AccuracyM:        cfg.AccuracyM,
			LoopForever:      cfg.LoopForever,
		}
		if cfg.RouteFile != "" {
			points, err := loadRoute(cfg, anchor)
			if err != nil {
				return nil, fmt.Errorf("load route file: %w", err)
			}
			params.InlineRoute = points
		}
		svc.simulator = planter.New(params, logger, metricsRegistry)
	}

	// svc.simulator is a typed *planter.Simulator; assigning it straight into
	// the session.Publisher interface field would make a non-nil interface
	// wrapping a nil pointer when the simulator is disabled, so only wire it
	// through when it actually exists.
	var publisher session.Publisher
	if svc.simulator != nil {
		publisher = svc.simulator
	}

	factory := func() transport.Conversation {
		return session.New(session.Options{
			State:            svc.state,
			ImplementProfile: &svc.implementProfile,
			Publisher:        publisher,
			Coordinator:      svc.coordinator,
			Logger:           logger,
		})
	}

	listener, err := transport.Listen(fmt.Sprintf("%s:%d", cfg.TCPHost, cfg.TCPPort), factory, logger)
	if err != nil {
		return nil, fmt.Errorf("start TCP listener: %w", err)
	}
	svc.listener = listener

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		svc.metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	}

	watcher, err := config.NewWatcher(logger)
	if err != nil {
		logger.WithError(err).Warn("config file watcher unavailable; implement/route hot-reload disabled")
	} else {
		svc.watcher = watcher
		svc.watchReloadableFiles(anchor)
	}

	return svc, nil
}

func loadRoute(cfg config.Config, anchor geo.Anchor) ([]route.Point, error) {
	path, err := route.Resolve(cfg.RouteFile, []string{".", "routes"})
	if err != nil {
		return nil, err
	}
	format := route.Format(cfg.RouteFormat)
	if format == "" {
		format = route.FormatJSON
	}
	return route.LoadFile(path, format, anchor)
}

// watchReloadableFiles wires the implement profile and, when a simulator
// is running from a file-backed route, the route file into the config
// watcher so an operator can push a revised file without restarting the
// process. Both swaps only take effect going forward: the implement
// profile for the next INFO reply, and the route for the next session to
// register (an in-flight planter worker keeps running the cycle it
// already cached — cycle caching is per-worker, not a live config knob).
func (s *Service) watchReloadableFiles(anchor geo.Anchor) {
	if s.cfg.ImplementProfilePath != "" {
		_ = s.watcher.Watch(s.cfg.ImplementProfilePath, func() {
			profile, err := implement.Load(s.cfg.ImplementProfilePath, s.logger)
			if err != nil {
				s.logger.WithError(err).Warn("failed to reload implement profile")
				return
			}
			s.implementProfile = profile
			s.logger.Info("implement profile reloaded")
		})
	}
	if s.cfg.RouteFile != "" && s.simulator != nil {
		_ = s.watcher.Watch(s.cfg.RouteFile, func() {
			points, err := loadRoute(s.cfg, anchor)
			if err != nil {
				s.logger.WithError(err).Warn("failed to reload route file")
				return
			}
			s.simulator.UpdateRoute(points)
			s.logger.Info("route file reloaded")
		})
	}
}

// Start begins accepting connections and (if configured) serving
// Prometheus metrics. It returns immediately; Serve runs in its own
// goroutine, stopped by ctx cancellation or Stop.
func (s *Service) Start(ctx context.Context) {
	go s.listener.Serve(ctx)
	if s.metricsServer != nil {
		go func() {
			if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.WithError(err).Warn("metrics server stopped")
			}
		}()
	}
}

// Stop closes the listener, waits for in-flight connections, stops the
// simulator, and releases the GNSS coordinator and config watcher.
func (s *Service) Stop() {
	if err := s.listener.Close(); err != nil {
		s.logger.WithError(err).Warn("error closing TCP listener")
	}
	s.listener.Wait()

	if s.simulator != nil {
		s.simulator.Stop()
	}
	if closer, ok := s.coordinator.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.WithError(err).Warn("error closing GNSS coordinator")
		}
	}
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.logger.WithError(err).Warn("error closing config watcher")
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Close(); err != nil {
			s.logger.WithError(err).Warn("error closing metrics server")
		}
	}
}
