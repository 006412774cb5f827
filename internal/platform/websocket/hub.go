// Package websocket pushes domain events to connected browsers. Clients are
// subscribed to their own user topic on connect and may additionally follow
// the public doctors topic.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Rehan0707/DocNear/internal/platform/auth"
)

// TopicDoctors carries roster changes such as availability toggles.
const TopicDoctors = "doctors"

// UserTopic is the private topic of a signed-in user.
func UserTopic(userID string) string {
	return "user:" + userID
}

type Event struct {
	Type       string          `json:"type"`
	Topic      string          `json:"topic"`
	ResourceID string          `json:"resourceId,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an event with data marshalled to JSON.
func NewEvent(eventType, topic, resourceID string, data interface{}) (Event, error) {
	ev := Event{
		Type:       eventType,
		Topic:      topic,
		ResourceID: resourceID,
		Timestamp:  time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s event: %w", eventType, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

// ClientMessage is an inbound message from a browser.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// EventPublisher is implemented by Hub and consumed by the domain services.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type Client struct {
	ID     string
	UserID string
	Topics []string
	Send   chan []byte
	hub    *Hub
}

// canSubscribe limits clients to the public topic and their own user topic.
func (c *Client) canSubscribe(topic string) bool {
	return topic == TopicDoctors || (c.UserID != "" && topic == UserTopic(c.UserID))
}

// Hub tracks clients and their topic subscriptions.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> set of clients
	all     map[*Client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		h.addLocked(topic, client)
	}
}

// Unregister removes a client from every topic and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		h.removeLocked(topic, client)
	}
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds the permitted topics to a registered client and returns the
// topics that were refused.
func (h *Hub) Subscribe(client *Client, topics []string) (refused []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if !client.canSubscribe(topic) {
			refused = append(refused, topic)
			continue
		}
		if _, ok := h.clients[topic][client]; ok {
			continue
		}
		h.addLocked(topic, client)
		client.Topics = append(client.Topics, topic)
	}
	return refused
}

func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removeSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		removeSet[t] = struct{}{}
		h.removeLocked(t, client)
	}

	remaining := make([]string, 0, len(client.Topics))
	for _, t := range client.Topics {
		if _, rm := removeSet[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

func (h *Hub) addLocked(topic string, client *Client) {
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

func (h *Hub) removeLocked(topic string, client *Client) {
	if subscribers, ok := h.clients[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, topic)
		}
	}
}

// ProcessMessage dispatches a client message to Subscribe or Unsubscribe.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		if refused := h.Subscribe(client, msg.Topics); len(refused) > 0 {
			h.logger.Warn().
				Str("client_id", client.ID).
				Str("user_id", client.UserID).
				Strs("topics", refused).
				Msg("websocket subscription refused")
		}
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	}
}

// Broadcast sends an event to every client subscribed to topic. Clients with
// a full buffer miss the event; they re-fetch on reconnect.
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("marshal websocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug().Str("client_id", client.ID).Str("topic", topic).Msg("websocket client buffer full")
		}
	}
}

// Publish broadcasts the event to subscribers of its topic.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if event.Topic == "" {
		return fmt.Errorf("websocket event %q has no topic", event.Type)
	}
	h.Broadcast(event.Topic, event)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Handler upgrades authenticated HTTP requests to WebSocket connections.
type Handler struct {
	hub      *Hub
	issuer   *auth.TokenIssuer
	sessions auth.SessionChecker
	upgrader gorillawebsocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler returns a handler accepting connections from allowedOrigins.
// An empty list accepts any origin.
func NewHandler(hub *Hub, issuer *auth.TokenIssuer, sessions auth.SessionChecker, allowedOrigins []string, logger zerolog.Logger) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Handler{
		hub:      hub,
		issuer:   issuer,
		sessions: sessions,
		logger:   logger,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect authenticates the caller, then upgrades the connection.
// Browsers cannot set headers on WebSocket requests, so the access token may
// arrive as the access_token query parameter.
func (h *Handler) HandleConnect(c echo.Context) error {
	userID, err := h.authenticate(c)
	if err != nil {
		return err
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	client := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Topics: []string{UserTopic(userID)},
		Send:   make(chan []byte, sendBuffer),
		hub:    h.hub,
	}
	h.hub.Register(client)
	h.logger.Debug().Str("client_id", client.ID).Str("user_id", userID).Msg("websocket connected")

	go h.writePump(client, ws)
	go h.readPump(client, ws)
	return nil
}

func (h *Handler) authenticate(c echo.Context) (string, error) {
	ctx := c.Request().Context()
	if uid := auth.UserIDFromContext(ctx); uid != "" {
		return uid, nil
	}

	token := c.QueryParam("access_token")
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, &auth.RedirectError{
			Message: "authentication required",
			Route:   auth.LandingRoute,
		})
	}
	claims, err := h.issuer.Parse(token)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	if h.sessions != nil {
		active, err := h.sessions.SessionActive(ctx, claims.SessionID)
		if err != nil {
			return "", echo.NewHTTPError(http.StatusServiceUnavailable, "session lookup failed").SetInternal(err)
		}
		if !active {
			return "", echo.NewHTTPError(http.StatusUnauthorized, &auth.RedirectError{
				Message: "session expired",
				Route:   auth.LandingRoute,
			})
		}
	}
	return claims.Subject, nil
}

func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if gorillawebsocket.IsUnexpectedCloseError(err, gorillawebsocket.CloseGoingAway, gorillawebsocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("client_id", client.ID).Msg("websocket closed")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		h.hub.ProcessMessage(client, msg)
	}
}

func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
