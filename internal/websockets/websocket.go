package websockets

import (
	"context"
	"sync/atomic"
	"time"

	"bunkhouse/internal/events"
	"bunkhouse/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	MESSAGE_TYPE_NOTIFICATION  = "notification"
	MESSAGE_TYPE_ERROR         = "error"
	MESSAGE_TYPE_AUTH_REQUEST  = "auth_request"
	MESSAGE_TYPE_AUTH_RESPONSE = "auth_response"
	MESSAGE_TYPE_AUTH_SUCCESS  = "auth_success"
	MESSAGE_TYPE_AUTH_FAILURE  = "auth_failure"

	PING_INTERVAL          = 30 * time.Second
	PONG_TIMEOUT           = 60 * time.Second
	WRITE_TIMEOUT          = 10 * time.Second
	AUTH_HANDSHAKE_TIMEOUT = 10 * time.Second
	MAX_MESSAGE_SIZE       = 64 * 1024
	SEND_CHANNEL_SIZE      = 64
	BROADCAST_BUFFER       = 256
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Event     string         `json:"event,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Authenticator resolves a staff token to the actor name.
type Authenticator func(token string) (string, error)

type Client struct {
	ID            string
	Actor         string
	Connection    *websocket.Conn
	Manager       *Manager
	authenticated atomic.Bool
	send          chan Message
}

func (c *Client) IsAuthenticated() bool {
	return c.authenticated.Load()
}

// Manager pushes notifications to connected dashboard clients.
type Manager struct {
	hub          *Hub
	authenticate Authenticator
	log          logger.Logger
}

var _ events.Notifier = (*Manager)(nil)

func New(authenticate Authenticator) *Manager {
	log := logger.New("websockets")

	manager := &Manager{
		hub:          newHub(),
		authenticate: authenticate,
		log:          log,
	}

	log.Function("New").Info("Starting websocket hub")
	go manager.hub.run(manager)

	return manager
}

// SubscribeTo relays notifications published on the event bus, including
// those from other API instances, to this instance's clients.
func (m *Manager) SubscribeTo(eventBus *events.EventBus) {
	eventBus.Subscribe(events.NOTIFICATIONS_CHANNEL, func(event events.Event) error {
		m.BroadcastMessage(notificationMessage(event.Notification))
		return nil
	})
}

// Notify queues n for every authenticated client. Delivery is best effort.
func (m *Manager) Notify(_ context.Context, n events.Notification) error {
	m.BroadcastMessage(notificationMessage(n))
	return nil
}

func notificationMessage(n events.Notification) Message {
	data := map[string]any{
		"timestamp": n.Timestamp,
	}
	if n.UnitNumber != "" {
		data["unitNumber"] = n.UnitNumber
	}
	if n.GuestName != "" {
		data["guestName"] = n.GuestName
	}
	if len(n.Problems) > 0 {
		data["problems"] = n.Problems
	}
	if n.Report != "" {
		data["report"] = n.Report
	}

	return Message{
		ID:        uuid.NewString(),
		Type:      MESSAGE_TYPE_NOTIFICATION,
		Event:     string(n.Type),
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func (m *Manager) BroadcastMessage(message Message) {
	log := m.log.Function("BroadcastMessage")

	select {
	case m.hub.broadcast <- message:
	case <-m.hub.done:
	default:
		log.Warn("Broadcast channel is full, dropping message", "messageID", message.ID, "event", message.Event)
	}
}

func (m *Manager) ClientCount() int {
	m.hub.mutex.RLock()
	defer m.hub.mutex.RUnlock()
	return len(m.hub.clients)
}

func (m *Manager) Close() {
	m.hub.stop()
}

func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	client := &Client{
		ID:         uuid.NewString(),
		Connection: c,
		Manager:    m,
		send:       make(chan Message, SEND_CHANNEL_SIZE),
	}

	authRequest := Message{
		ID:        uuid.NewString(),
		Type:      MESSAGE_TYPE_AUTH_REQUEST,
		Timestamp: time.Now().UTC(),
	}
	if err := c.WriteJSON(authRequest); err != nil {
		log.Er("failed to send auth request", err)
		_ = c.Close()
		return
	}

	m.hub.registerClient(client)
	defer func() {
		log.Info("Client disconnected", "clientID", client.ID)
		m.hub.unregisterClient(client)
		_ = c.Close()
	}()

	client.startAuthTimeout()
	go client.readPump()
	client.writePump()
}

func (c *Client) startAuthTimeout() {
	log := c.Manager.log.Function("startAuthTimeout")

	time.AfterFunc(AUTH_HANDSHAKE_TIMEOUT, func() {
		if c.IsAuthenticated() {
			return
		}
		log.Warn("Client failed to authenticate within timeout", "clientID", c.ID)
		_ = c.Connection.Close()
	})
}

func (c *Client) readPump() {
	log := c.Manager.log.Function("readPump")
	defer func() {
		c.Manager.hub.unregisterClient(c)
		_ = c.Connection.Close()
	}()

	c.Connection.SetReadLimit(MAX_MESSAGE_SIZE)
	if err := c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT)); err != nil {
		log.Er("failed to set read deadline", err, "clientID", c.ID)
	}
	c.Connection.SetPongHandler(func(string) error {
		return c.Connection.SetReadDeadline(time.Now().Add(PONG_TIMEOUT))
	})

	for {
		var message Message
		if err := c.Connection.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Er("Unexpected close error", err, "clientID", c.ID)
			}
			return
		}

		c.routeMessage(message)
	}
}

// routeMessage accepts only the auth handshake; the feed is server to client.
func (c *Client) routeMessage(message Message) {
	log := c.Manager.log.Function("routeMessage")

	if message.Type == MESSAGE_TYPE_AUTH_RESPONSE {
		c.handleAuthResponse(message)
		return
	}

	log.Debug("Ignoring client message", "clientID", c.ID, "type", message.Type)
}

func (c *Client) handleAuthResponse(message Message) {
	log := c.Manager.log.Function("handleAuthResponse")

	if c.IsAuthenticated() {
		log.Warn("Auth response from already authenticated client", "clientID", c.ID)
		return
	}

	token, ok := message.Data["token"].(string)
	if !ok || token == "" {
		c.sendAuthFailure("Invalid token format")
		return
	}

	actor, err := c.Manager.authenticate(token)
	if err != nil {
		log.Info("WebSocket token validation failed", "clientID", c.ID, "error", err.Error())
		c.sendAuthFailure("Authentication failed")
		return
	}

	c.Actor = actor
	c.authenticated.Store(true)
	log.Info("Client authenticated", "clientID", c.ID, "actor", actor)

	c.enqueue(Message{
		ID:        uuid.NewString(),
		Type:      MESSAGE_TYPE_AUTH_SUCCESS,
		Data:      map[string]any{"actor": actor},
		Timestamp: time.Now().UTC(),
	})
}

func (c *Client) sendAuthFailure(reason string) {
	c.enqueue(Message{
		ID:        uuid.NewString(),
		Type:      MESSAGE_TYPE_AUTH_FAILURE,
		Data:      map[string]any{"reason": reason},
		Timestamp: time.Now().UTC(),
	})

	time.AfterFunc(100*time.Millisecond, func() {
		_ = c.Connection.Close()
	})
}

func (c *Client) enqueue(message Message) {
	defer func() {
		// send is closed once the hub drops the client.
		_ = recover()
	}()

	select {
	case c.send <- message:
	default:
		c.Manager.log.Function("enqueue").Warn("Client send channel full, dropping message", "clientID", c.ID)
	}
}

func (c *Client) writePump() {
	log := c.Manager.log.Function("writePump")

	ticker := time.NewTicker(PING_INTERVAL)
	defer func() {
		ticker.Stop()
		_ = c.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline", err, "clientID", c.ID)
			}
			if !ok {
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Connection.WriteJSON(message); err != nil {
				log.Er("WebSocket write error", err, "clientID", c.ID)
				return
			}

		case <-ticker.C:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
				log.Er("failed to set write deadline for ping", err, "clientID", c.ID)
			}
			if err := c.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
