package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"bridge-server/internal/bridge"
	"bridge-server/internal/config"
)

const (
	cleanupInterval = time.Hour
	saveTimeout     = 5 * time.Second
)

type Server struct {
	cfg config.ServerConfig

	registry    *Registry
	sessions    *SessionManager
	connections *ConnectionManager
	grace       *GraceScheduler
	rateLimiter *RateLimiter
	health      *ConnectionHealth
	history     DealHistory

	gameOptions []bridge.Option
	closeStore  func()
	saves       sync.WaitGroup

	stop     chan struct{}
	stopOnce sync.Once
}

type Option func(*Server)

// WithHistory records finished deals in h.
func WithHistory(h DealHistory) Option {
	return func(s *Server) { s.history = h }
}

// WithGameOptions applies opts to every game the server creates.
func WithGameOptions(opts ...bridge.Option) Option {
	return func(s *Server) { s.gameOptions = append(s.gameOptions, opts...) }
}

// New builds a server without starting any background task.
func New(cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		sessions:    NewSessionManager(),
		connections: NewConnectionManager(),
		grace:       NewGraceScheduler(),
		rateLimiter: NewRateLimiter(cfg.RateLimitMessages, cfg.RateLimitWindow),
		health:      NewConnectionHealth(),
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = NewRegistry(s.newGame, s.grace.Pending)
	s.registry.onClose = s.forgetRoom
	return s
}

func (s *Server) newGame(code string) *bridge.Game {
	g := bridge.NewGame(code, s.gameOptions...)
	if s.history != nil {
		g.OnGameEnd = s.recordDeal
	}
	return g
}

// forgetRoom drops sessions that still point at a closed room.
func (s *Server) forgetRoom(code string) {
	if n := s.sessions.RemoveRoom(code); n > 0 {
		log.Debug().Str("room", code).Int("sessions", n).Msg("dropped sessions of closed room")
	}
}

// recordDeal saves a finished deal without holding up the room.
func (s *Server) recordDeal(res bridge.DealResult) {
	rec := NewDealRecord(res)
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.history.SaveDeal(ctx, rec); err != nil {
			log.Error().Err(err).Str("room", rec.RoomCode).Msg("failed to save deal")
			return
		}
		log.Info().Str("room", rec.RoomCode).Str("deal", rec.ID).
			Str("contract", res.Contract.String()).Str("winner", rec.WinningTeam.String()).
			Msg("deal recorded")
	}()
}

// NewServer wires the production server: history store from DATABASE_URL,
// background tasks, and the HTTP server around RegisterRoutes.
func NewServer(ctx context.Context, cfg config.ServerConfig) (*Server, *http.Server, error) {
	var opts []Option

	store, err := NewHistoryStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("history store: %w", err)
	}
	if store != nil {
		opts = append(opts, WithHistory(store))
		log.Info().Msg("deal history enabled")
	} else {
		log.Info().Msg("DATABASE_URL not set, deal history disabled")
	}

	s := New(cfg, opts...)
	if store != nil {
		s.closeStore = store.Close
	}
	s.Start()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, httpServer, nil
}

// Start launches the cleanup and idle connection tasks.
func (s *Server) Start() {
	go s.cleanupTask()
	if s.cfg.IdleTimeout > 0 {
		go s.idleTask()
	}
}

// cleanupTask runs every hour: it drops stale rate limiter entries and deal
// history older than the retention period.
func (s *Server) cleanupTask() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Server) cleanup() {
	s.rateLimiter.Cleanup()
	if s.history == nil || s.cfg.HistoryRetention <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	deleted, err := s.history.Cleanup(ctx, s.cfg.HistoryRetention)
	if err != nil {
		log.Error().Err(err).Msg("cleanup task failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("cleanup task removed old deals")
	}
}

func (s *Server) idleTask() {
	ticker := time.NewTicker(max(s.cfg.IdleTimeout/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.reapIdle()
		}
	}
}

// reapIdle closes sockets that have been silent longer than IdleTimeout.
// Their read loops then take the normal disconnect path.
func (s *Server) reapIdle() int {
	closed := 0
	for _, id := range s.health.GetInactiveConnections(s.cfg.IdleTimeout) {
		client := s.connections.GetConnection(id)
		if client == nil {
			s.health.RemoveConnection(id)
			continue
		}
		log.Info().Str("conn", id).Msg("closing idle connection")
		client.Drop()
		closed++
	}
	return closed
}

// Shutdown stops background tasks and pending grace removals, closes every
// room and socket, then waits for in-flight deal saves.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.grace.Stop()

	rooms := s.registry.Rooms()
	for _, room := range rooms {
		s.registry.Delete(room.Code)
	}

	clients := s.connections.All()
	for _, client := range clients {
		client.Close(websocket.StatusGoingAway, "server shutting down")
	}
	log.Info().Int("connections", len(clients)).Int("rooms", len(rooms)).Msg("server shutdown")

	saved := make(chan struct{})
	go func() {
		s.saves.Wait()
		close(saved)
	}()
	var err error
	select {
	case <-saved:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for deal saves: %w", ctx.Err())
	}

	if s.closeStore != nil {
		s.closeStore()
	}
	return err
}
