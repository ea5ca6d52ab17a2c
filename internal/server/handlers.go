package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bridge-server/internal/bridge"
)

var (
	errInvalidJSON      = errors.New("INVALID_JSON: Message is not valid JSON")
	errInvalidPayload   = errors.New("INVALID_PAYLOAD: Payload does not match the message type")
	errNotInGame        = errors.New("NOT_IN_GAME: No active game session")
	errAlreadyInGame    = errors.New("ALREADY_IN_GAME: Connection is already seated in a room")
	errAlreadyConnected = errors.New("ALREADY_CONNECTED: Player is connected on another socket")
	errSessionNotFound  = errors.New("SESSION_NOT_FOUND: Unknown player id")
	errRateLimited      = errors.New("RATE_LIMIT_EXCEEDED: Too many messages, slow down")
)

// errorCode splits an error into its wire code and message. Errors in the
// "CODE: message" form keep their code; anything else is INTERNAL_ERROR.
func errorCode(err error) (string, string) {
	var be *bridge.Error
	if errors.As(err, &be) {
		return be.Code, be.Message
	}
	code, message, ok := strings.Cut(err.Error(), ": ")
	if ok && code != "" && strings.ToUpper(code) == code && !strings.ContainsAny(code, " \t") {
		return code, message
	}
	return "INTERNAL_ERROR", err.Error()
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to accept websocket")
		return
	}
	socket.SetReadLimit(maxMessageBytes)

	ctx := r.Context()
	connectionID := uuid.NewString()
	client := NewClient(connectionID, socket)

	s.connections.AddConnection(connectionID, client)
	s.health.UpdateActivity(connectionID)
	log.Debug().Str("conn", connectionID).Msg("connection opened")

	go client.writePump(ctx)
	defer func() {
		client.Close(websocket.StatusGoingAway, "connection closed")
		s.handleDisconnect(client)
		log.Debug().Str("conn", connectionID).Msg("connection closed")
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			return
		}
		s.health.UpdateActivity(connectionID)

		if !s.rateLimiter.Allow(connectionID) {
			s.reply(client, ClientMessage{}, errRateLimited)
			continue
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reply(client, ClientMessage{}, errInvalidJSON)
			continue
		}
		s.dispatch(client, msg)
	}
}

const maxMessageBytes = 16 << 10

func (s *Server) dispatch(c *Client, msg ClientMessage) {
	if err := ValidateMessageType(msg.Type); err != nil {
		s.reply(c, msg, err)
		return
	}
	log.Debug().Str("conn", c.ID).Str("type", msg.Type).Msg("message")

	switch msg.Type {
	case "ping":
		if err := c.Send(ServerMessage{Type: "pong", RequestID: msg.RequestID, Payload: struct{}{}}); err != nil {
			log.Debug().Err(err).Str("conn", c.ID).Msg("failed to send pong")
		}
	case "create_game":
		s.handleCreateGame(c, msg)
	case "join_game":
		s.handleJoinGame(c, msg)
	case "reconnect":
		s.handleReconnect(c, msg)
	case string(bridge.MoveLeave):
		s.handleLeaveGame(c, msg)
	default:
		s.handleMove(c, msg)
	}
}

// reply answers a request. A nil err is a bare success.
func (s *Server) reply(c *Client, msg ClientMessage, err error) {
	res := Result{Success: true}
	if err != nil {
		res = Result{Success: false}
		res.Code, res.Message = errorCode(err)
	}
	s.send(c, msg, res)
}

func (s *Server) send(c *Client, msg ClientMessage, res Result) {
	if err := c.Send(ServerMessage{Type: "result", RequestID: msg.RequestID, Payload: res}); err != nil {
		log.Debug().Err(err).Str("conn", c.ID).Msg("failed to send result")
	}
}

func broadcast(g *bridge.Game) {
	if err := g.Broadcast(); err != nil {
		log.Warn().Err(err).Str("room", g.RoomCode).Msg("broadcast incomplete")
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

func (s *Server) handleCreateGame(c *Client, msg ClientMessage) {
	var req CreateGameRequest
	if err := decodePayload(msg.Payload, &req); err != nil {
		s.reply(c, msg, err)
		return
	}
	s.joinRoom(c, msg, req.Username, s.registry.Create)
}

func (s *Server) handleJoinGame(c *Client, msg ClientMessage) {
	var req JoinGameRequest
	if err := decodePayload(msg.Payload, &req); err != nil {
		s.reply(c, msg, err)
		return
	}
	code := NormalizeRoomCode(req.RoomCode)
	if err := ValidateRoomCode(code); err != nil {
		s.reply(c, msg, err)
		return
	}
	s.joinRoom(c, msg, req.Username, func() *Room { return s.registry.GetOrCreate(code) })
}

// joinRoom seats the connection in the room returned by open under a new
// player id. A room that closed between lookup and lock is looked up again.
func (s *Server) joinRoom(c *Client, msg ClientMessage, username string, open func() *Room) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		s.reply(c, msg, err)
		return
	}
	if _, seated := s.connections.GetPlayerByConnection(c.ID); seated {
		s.reply(c, msg, errAlreadyInGame)
		return
	}

	playerID := uuid.NewString()
	for {
		room := open()
		err := room.Do(func(g *bridge.Game) error {
			if err := g.AddPlayer(playerID, username, c); err != nil {
				return err
			}
			name := g.Players[playerID].Name
			s.sessions.StoreSession(SessionInfo{PlayerID: playerID, RoomCode: room.Code, Username: name})
			s.connections.BindPlayer(c.ID, PlayerConnection{RoomCode: room.Code, PlayerID: playerID, Username: name})

			s.send(c, msg, Result{Success: true, Data: JoinGameResponse{
				RoomCode: room.Code,
				PlayerID: playerID,
				Username: name,
			}})
			broadcast(g)
			return nil
		})
		if errors.Is(err, ErrRoomClosed) {
			continue
		}
		if err != nil {
			s.reply(c, msg, err)
			return
		}
		log.Info().Str("room", room.Code).Str("player", playerID).Str("name", username).Msg("player joined")
		return
	}
}

func (s *Server) handleReconnect(c *Client, msg ClientMessage) {
	var req ReconnectRequest
	if err := decodePayload(msg.Payload, &req); err != nil {
		s.reply(c, msg, err)
		return
	}
	if req.PlayerID == "" {
		s.reply(c, msg, errSessionNotFound)
		return
	}
	if _, seated := s.connections.GetPlayerByConnection(c.ID); seated {
		s.reply(c, msg, errAlreadyInGame)
		return
	}

	session, err := s.sessions.GetSession(req.PlayerID)
	if err != nil {
		s.reply(c, msg, err)
		return
	}
	room, err := s.registry.Get(session.RoomCode)
	if err != nil {
		s.sessions.RemoveSession(session.PlayerID)
		s.reply(c, msg, err)
		return
	}

	err = room.Do(func(g *bridge.Game) error {
		switch g.Rebind(session.PlayerID, c) {
		case bridge.RebindNotFound:
			s.sessions.RemoveSession(session.PlayerID)
			return errSessionNotFound
		case bridge.RebindAlreadyConnected:
			return errAlreadyConnected
		}
		s.grace.Cancel(session.PlayerID)
		name := g.Players[session.PlayerID].Name
		s.connections.BindPlayer(c.ID, PlayerConnection{RoomCode: room.Code, PlayerID: session.PlayerID, Username: name})

		s.send(c, msg, Result{Success: true, Data: JoinGameResponse{
			RoomCode: room.Code,
			PlayerID: session.PlayerID,
			Username: name,
		}})
		broadcast(g)
		return nil
	})
	if errors.Is(err, ErrRoomClosed) {
		err = ErrRoomNotFound
	}
	if err != nil {
		s.reply(c, msg, err)
		return
	}
	log.Info().Str("room", room.Code).Str("player", session.PlayerID).Msg("player reconnected")
}

// seatedRoom resolves the room the connection is playing in.
func (s *Server) seatedRoom(c *Client) (PlayerConnection, *Room, error) {
	player, ok := s.connections.GetPlayerByConnection(c.ID)
	if !ok {
		return PlayerConnection{}, nil, errNotInGame
	}
	room, err := s.registry.Get(player.RoomCode)
	if err != nil {
		s.connections.UnbindPlayer(c.ID)
		return PlayerConnection{}, nil, errNotInGame
	}
	return player, room, nil
}

func (s *Server) handleLeaveGame(c *Client, msg ClientMessage) {
	player, room, err := s.seatedRoom(c)
	if err != nil {
		s.reply(c, msg, err)
		return
	}

	err = room.Do(func(g *bridge.Game) error {
		if err := g.ExecuteMove(bridge.Move{Type: bridge.MoveLeave, PlayerID: player.PlayerID}); err != nil {
			return err
		}
		s.sessions.RemoveSession(player.PlayerID)
		s.connections.UnbindPlayer(c.ID)
		s.reply(c, msg, nil)
		broadcast(g)
		return nil
	})
	if err != nil {
		s.reply(c, msg, err)
		return
	}
	log.Info().Str("room", room.Code).Str("player", player.PlayerID).Msg("player left")
}

func (s *Server) handleMove(c *Client, msg ClientMessage) {
	var req MoveRequest
	if err := decodePayload(msg.Payload, &req); err != nil {
		s.reply(c, msg, err)
		return
	}
	player, room, err := s.seatedRoom(c)
	if err != nil {
		s.reply(c, msg, err)
		return
	}

	move := bridge.Move{
		Type:      bridge.MoveType(msg.Type),
		PlayerID:  player.PlayerID,
		Direction: req.Direction,
		Accept:    req.Accept,
		Bet:       req.Bet,
		Card:      req.Card,
	}
	err = room.Do(func(g *bridge.Game) error {
		if err := g.ExecuteMove(move); err != nil {
			return err
		}
		s.reply(c, msg, nil)
		broadcast(g)
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("room", room.Code).Str("type", msg.Type).Msg("move rejected")
		s.reply(c, msg, err)
	}
}

// handleDisconnect runs once per socket. A seated player keeps the seat for
// the reconnect grace period.
func (s *Server) handleDisconnect(c *Client) {
	player, seated := s.connections.GetPlayerByConnection(c.ID)
	s.connections.RemoveConnection(c.ID)
	s.rateLimiter.RemoveConnection(c.ID)
	s.health.RemoveConnection(c.ID)
	if !seated {
		return
	}

	room, err := s.registry.Get(player.RoomCode)
	if err != nil {
		log.Debug().Err(err).Str("room", player.RoomCode).Str("player", player.PlayerID).Msg("disconnect from missing room")
		return
	}
	err = room.Do(func(g *bridge.Game) error {
		if !g.ClearConnection(player.PlayerID, c) {
			return nil
		}
		s.grace.Schedule(player.PlayerID, room.Code, s.cfg.ReconnectGrace, func(claim func() bool) {
			s.expire(room, player.PlayerID, claim)
		})
		log.Info().Str("room", room.Code).Str("player", player.PlayerID).
			Dur("grace", s.cfg.ReconnectGrace).Msg("player disconnected")
		broadcast(g)
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("room", room.Code).Str("player", player.PlayerID).Msg("disconnect after room closed")
	}
}

// expire removes a player whose grace period ran out.
func (s *Server) expire(room *Room, playerID string, claim func() bool) {
	err := room.Do(func(g *bridge.Game) error {
		if !claim() {
			return nil
		}
		s.sessions.RemoveSession(playerID)
		if err := g.ForceRemove(playerID); err != nil {
			return err
		}
		log.Info().Str("room", room.Code).Str("player", playerID).Msg("reconnect grace expired")
		broadcast(g)
		return nil
	})
	if err != nil && !errors.Is(err, ErrRoomClosed) {
		log.Warn().Err(err).Str("room", room.Code).Str("player", playerID).Msg("grace removal failed")
	}
}
