// Package server provides the HTTP query service over the pricing catalog.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap"
	"github.com/agentstation/pricemap/internal/cmd/application"
	"github.com/agentstation/pricemap/internal/history"
	"github.com/agentstation/pricemap/internal/server/cache"
	"github.com/agentstation/pricemap/internal/server/events"
	"github.com/agentstation/pricemap/internal/server/events/adapters"
	"github.com/agentstation/pricemap/internal/server/middleware"
	"github.com/agentstation/pricemap/internal/server/sse"
	ws "github.com/agentstation/pricemap/internal/server/websocket"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/store"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         pricemap.Client
	history        *history.DB
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	rateLimiter    *middleware.RateLimiter
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	started        atomic.Bool
}

// New creates a server over the application's client. Hooks are attached
// before anything can trigger a refresh.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return nil, err
	}
	hist, err := app.History()
	if err != nil {
		return nil, err
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		client:         client,
		history:        hist,
		cache:          cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	s.connectHooks()
	logger.Debug().Msg("Server instance created")
	return s, nil
}

// connectHooks forwards catalog changes and refresh outcomes to the event
// broker and drops cached responses when a new catalog is installed.
func (s *Server) connectHooks() {
	c := s.client

	c.OnRecordAdded(func(r pricing.Record) {
		s.broker.Publish(events.RecordAdded, map[string]any{"record": r})
	})
	c.OnRecordUpdated(func(old, updated pricing.Record) {
		s.broker.Publish(events.RecordUpdated, map[string]any{"old": old, "new": updated})
	})
	c.OnRecordRemoved(func(r pricing.Record) {
		s.broker.Publish(events.RecordRemoved, map[string]any{"record": r})
	})

	c.OnRefreshStarted(func(trigger pricemap.Trigger) {
		s.broker.Publish(events.RefreshStarted, map[string]any{"trigger": trigger})
	})
	c.OnRefreshCompleted(func(result pricemap.RefreshResult) {
		if result.Outcome == store.Installed {
			s.cache.Clear()
		}
		s.broker.Publish(refreshEventType(result), refreshEventData(result))
	})

	s.logger.Debug().Msg("Client hooks connected to event broker")
}

func refreshEventType(result pricemap.RefreshResult) events.EventType {
	if result.Err != nil || result.Outcome == store.Skipped {
		return events.RefreshFailed
	}
	return events.RefreshCompleted
}

func refreshEventData(result pricemap.RefreshResult) map[string]any {
	data := map[string]any{
		"trigger": result.Trigger,
		"outcome": result.Outcome,
	}
	if r := result.Report; r != nil {
		data["runId"] = r.RunID
		data["recordCount"] = r.RecordCount
		data["succeeded"] = r.Succeeded
		data["failed"] = r.Failed
	}
	if result.Err != nil {
		data["error"] = result.Err.Error()
	}
	return data
}

// Start starts the background services and, when configured, the refresh
// loop.
func (s *Server) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}
	go s.broker.Run(s.ctx)
	go s.wsHub.Run(s.ctx)
	go func() {
		defer close(s.done)
		s.sseBroadcaster.Run(s.ctx)
	}()
	if s.rateLimiter != nil {
		go s.rateLimiter.Run(s.ctx)
	}

	if s.config.AutoRefresh {
		if err := s.client.AutoRefreshOn(); err != nil {
			return err
		}
	}
	s.logger.Debug().Msg("Background services started")
	return nil
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops the refresh loop and the background services. A run in
// flight is not waited for past ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	defer s.cancel()

	off := make(chan error, 1)
	go func() { off <- s.client.AutoRefreshOff() }()

	var err error
	select {
	case err = <-off:
	case <-ctx.Done():
		s.logger.Warn().Msg("Refresh run still in progress at shutdown deadline")
		return ctx.Err()
	}

	s.cancel()
	if !s.started.Load() {
		return err
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
	return err
}
