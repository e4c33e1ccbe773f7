package api

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/comit-io/galaxyapi/internal/api/shared"
	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
)

var (
	alertStreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "galaxyapi_alert_stream_clients",
		Help: "Connected alert stream websocket clients.",
	})
	alertStreamMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "galaxyapi_alert_stream_messages_total",
		Help: "Messages broadcast on the alert stream.",
	})
)

type alertClient struct {
	conn     *websocket.Conn
	send     chan []byte
	username string
}

// AlertHub relays alert messages to every connected websocket client. Each
// text frame a client sends is broadcast to all clients, the sender included.
// The run loop owns the client set.
type AlertHub struct {
	clients    map[*alertClient]struct{}
	broadcast  chan []byte
	register   chan *alertClient
	unregister chan *alertClient
	done       chan struct{}
	count      atomic.Int64

	upgrader   websocket.Upgrader
	sendBuffer int
	log        *logrus.Logger
}

func NewAlertHub(cfg config.WebSocketConfig, log *logrus.Logger) *AlertHub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	h := &AlertHub{
		clients:    make(map[*alertClient]struct{}),
		broadcast:  make(chan []byte),
		register:   make(chan *alertClient),
		unregister: make(chan *alertClient),
		done:       make(chan struct{}),
		sendBuffer: sendBuffer,
		log:        log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return h
}

// originChecker allows the listed origins. "*" allows any origin; an empty
// list keeps gorilla's same-host check.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[strings.ToLower(r.Header.Get("Origin"))]
		return ok
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *AlertHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Add(1)
			alertStreamClients.Inc()
			h.log.WithField("username", client.username).Debug("Alert stream client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.log.WithField("username", client.username).Debug("Alert stream client disconnected")
			}

		case message := <-h.broadcast:
			alertStreamMessages.Inc()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		}
	}
}

func (h *AlertHub) remove(client *alertClient) {
	delete(h.clients, client)
	close(client.send)
	h.count.Add(-1)
	alertStreamClients.Dec()
}

// Clients returns the number of registered clients.
func (h *AlertHub) Clients() int {
	return int(h.count.Load())
}

// Publish broadcasts message to every client. It returns false once the hub
// has stopped.
func (h *AlertHub) Publish(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	case <-h.done:
		return false
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *AlertHub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		shared.Entry(c).WithError(err).Warn("Alert stream upgrade failed")
		return
	}

	client := &alertClient{
		conn:     conn,
		send:     make(chan []byte, h.sendBuffer),
		username: c.GetString(shared.UsernameKey),
	}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

func (h *AlertHub) readPump(c *alertClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("username", c.username).Warn("Alert stream read failed")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if !h.Publish(message) {
			return
		}
	}
}

func (h *AlertHub) writePump(c *alertClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handlePublishAlert broadcasts the raw request body to the alert stream.
func (h *AlertHub) handlePublishAlert(c *gin.Context) {
	const op = "api.PublishAlert"

	body, err := c.GetRawData()
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		shared.Fail(c, op, apperrors.Validation(op, "alert message is required"))
		return
	}
	if len(body) > maxMessageSize {
		shared.Fail(c, op, apperrors.Validation(op, "alert message is too large"))
		return
	}
	if !h.Publish(body) {
		shared.Fail(c, op, apperrors.Upstream(op, errHubStopped))
		return
	}
	shared.OK(c, http.StatusAccepted, gin.H{"clients": h.Clients()})
}
