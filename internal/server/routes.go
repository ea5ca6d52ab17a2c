package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"bridge-server/internal/bridge"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.corsMiddleware)

	r.With(requestLogger).Get("/health", s.healthHandler)
	r.Get("/websocket", s.websocketHandler)

	r.Group(func(r chi.Router) {
		r.Use(requestLogger)
		r.Get("/rooms/{code}", s.roomHandler)
		r.Get("/rooms/{code}/history", s.historyHandler)
	})

	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allow := s.allowedOrigin(origin); allow != "" {
			w.Header().Set("Access-Control-Allow-Origin", allow)
			if allow != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && allowed == origin {
			return origin
		}
	}
	return ""
}

// requestLogger writes one zerolog line per HTTP request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		log.Info().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	code, message := errorCode(err)
	writeJSON(w, status, Result{Success: false, Code: code, Message: message})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":      "ok",
		"rooms":       s.registry.Len(),
		"connections": s.connections.Count(),
		"sessions":    s.sessions.Count(),
		"history":     s.history != nil,
	}
	if pinger, ok := s.history.(interface {
		Ping(ctx context.Context) error
	}); ok {
		if err := pinger.Ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["historyError"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// roomCode reads and validates the {code} path parameter.
func roomCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := NormalizeRoomCode(chi.URLParam(r, "code"))
	if err := ValidateRoomCode(code); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return code, true
}

func (s *Server) roomHandler(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	room, err := s.registry.Get(code)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var summary RoomSummary
	err = room.Read(func(g *bridge.Game) {
		summary = summarizeRoom(room, g)
	})
	if err != nil {
		writeError(w, http.StatusNotFound, ErrRoomNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func summarizeRoom(room *Room, g *bridge.Game) RoomSummary {
	summary := RoomSummary{
		RoomCode:   room.Code,
		Phase:      g.Phase.String(),
		Players:    make([]RoomSeat, 0, len(g.SeatOrder)),
		CurrentBet: g.CurrentBet.String(),
		CreatedAt:  room.CreatedAt,
		UpdatedAt:  room.updatedAt,
	}
	for seat, pid := range g.SeatOrder {
		player := g.Players[pid]
		summary.Players = append(summary.Players, RoomSeat{
			Seat:      seat,
			Name:      player.Name,
			Ready:     player.Ready,
			Connected: player.Connected(),
		})
	}
	return summary
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrHistoryDisabled)
		return
	}
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.New("INVALID_LIMIT: limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	deals, err := s.history.ListDeals(r.Context(), code, limit)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("failed to list deals")
		writeError(w, http.StatusInternalServerError, errors.New("HISTORY_UNAVAILABLE: Could not load deal history"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"roomCode": code,
		"deals":    deals,
	})
}
