// Package handlers provides HTTP request handlers for the pricing API.
package handlers

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap"
	"github.com/agentstation/pricemap/internal/history"
	"github.com/agentstation/pricemap/internal/server/cache"
	"github.com/agentstation/pricemap/internal/server/sse"
	ws "github.com/agentstation/pricemap/internal/server/websocket"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client         pricemap.Client
	history        *history.DB
	cache          *cache.Cache
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
}

// New creates a new Handlers instance. history may be nil.
func New(
	client pricemap.Client,
	history *history.DB,
	cache *cache.Cache,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		client:         client,
		history:        history,
		cache:          cache,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
	}
}
