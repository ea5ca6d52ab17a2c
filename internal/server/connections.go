package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"

	"bridge-server/internal/bridge"
)

const (
	sendQueueSize = 32
	writeTimeout  = 10 * time.Second
)

var errClientClosed = errors.New("CONNECTION_CLOSED: Client connection is closed")

// Client is one websocket connection. Outgoing messages go through a
// buffered queue drained by writePump so a slow socket never blocks a room.
type Client struct {
	ID     string
	socket *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

var _ bridge.Conn = (*Client)(nil)

func NewClient(id string, socket *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		socket: socket,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Deliver queues a sync_state push. The view is encoded before returning
// so the caller may keep mutating the game afterwards.
func (c *Client) Deliver(view *bridge.View) error {
	return c.Send(ServerMessage{Type: "sync_state", Payload: view})
}

func (c *Client) Send(msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(data []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errClientClosed
	default:
		// A client that cannot keep up is dropped.
		c.Drop()
		return fmt.Errorf("SEND_QUEUE_FULL: client %s dropped", c.ID)
	}
}

// writePump writes queued messages until the client is closed or a write
// fails.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case data := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.socket.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.Drop()
				return
			}
		}
	}
}

// Close runs the close handshake in the background. The peer gets up to
// five seconds to answer.
func (c *Client) Close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.socket != nil {
			go c.socket.Close(code, reason)
		}
	})
}

// Drop closes the socket immediately so the read loop fails at once.
func (c *Client) Drop() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.socket != nil {
			c.socket.CloseNow()
		}
	})
}

func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

type PlayerConnection struct {
	RoomCode string
	PlayerID string
	Username string
}

type ConnectionManager struct {
	clients map[string]*Client          // connectionID → client
	players map[string]PlayerConnection // connectionID → seated player
	mu      sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
		players: make(map[string]PlayerConnection),
	}
}

func (cm *ConnectionManager) AddConnection(id string, client *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[id] = client
}

// BindPlayer records that connection id now acts for player.
func (cm *ConnectionManager) BindPlayer(id string, player PlayerConnection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.players[id] = player
}

// UnbindPlayer forgets the player bound to connection id.
func (cm *ConnectionManager) UnbindPlayer(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.players, id)
}

func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.players, id)
	delete(cm.clients, id)
}

func (cm *ConnectionManager) GetPlayerByConnection(id string) (PlayerConnection, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	player, ok := cm.players[id]
	return player, ok
}

func (cm *ConnectionManager) GetConnection(id string) *Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.clients[id]
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// All returns a snapshot of every open client.
func (cm *ConnectionManager) All() []*Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	return clients
}
