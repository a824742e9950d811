package websocket

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"movie-social/internal/config"
	"movie-social/internal/logger"
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id     string
	userID uint
	hub    ConnectionRegistry
	conn   *websocket.Conn
	// Buffered channel of outbound frames. Closed only after Leave.
	send chan []byte
	cfg  config.WebSocketConfig
	log  *logger.Logger
}

func (c *Client) ID() string { return c.id }

// Enqueue hands a frame to the write pump without blocking.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// readPump keeps the read deadline alive through pongs and detects the
// disconnect. Push clients send nothing the server acts on.
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c.userID, c)
		close(c.send)
		c.conn.Close()
	}()

	pongWait := time.Duration(c.cfg.PongWaitSeconds) * time.Second
	c.conn.SetReadLimit(int64(c.cfg.MaxMessageSizeBytes))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps frames from the send buffer to the websocket connection.
// Each frame is its own text message so clients can decode one event per read.
func (c *Client) writePump() {
	writeWait := time.Duration(c.cfg.WriteWaitSeconds) * time.Second
	ticker := time.NewTicker(time.Duration(c.cfg.PingPeriodSeconds) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWsPerConnection upgrades an authenticated request and joins the
// connection to the user's room.
func ServeWsPerConnection(hub ConnectionRegistry, userID uint, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig, log *logger.Logger) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	bufSize := wsCfg.SendBufferSize
	if bufSize <= 0 {
		bufSize = 256
	}
	client := &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, bufSize),
		cfg:    wsCfg,
	}
	client.log = log.With(zap.Uint("user_id", userID), zap.String("conn_id", client.id))
	hub.Join(userID, client)

	go client.writePump()
	go client.readPump()
}
