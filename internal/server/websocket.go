package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/hwbench/station/internal/console"
	"github.com/hwbench/station/pkg/api"
	"github.com/hwbench/station/pkg/log"
)

// Client is one operator console connection: outbound messages stream
// from the session topic, inbound messages carry interaction responses
type Client struct {
	session  *console.Session
	conn     *websocket.Conn
	consumer console.Consumer
}

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 64 * 1024
	wsBufferSize       = 1024
	incomingBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed",
			log.Error(err))
		return
	}

	client := &Client{
		session:  s.session,
		conn:     conn,
		consumer: s.session.Subscribe(),
	}
	go client.run()
}

func (c *Client) run() {
	defer func() {
		c.consumer.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	incoming := make(chan []byte, incomingBufferSize)
	go c.readMessages(incoming)

	for {
		select {
		case message, ok := <-incoming:
			if !ok {
				return
			}
			c.handleInbound(message)

		case msg, ok := <-c.consumer.Receive():
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.send(msg) {
				return
			}

		case <-ticker.C:
			if !c.sendPing() {
				return
			}
		}
	}
}

func (c *Client) readMessages(incoming chan []byte) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			close(incoming)
			return
		}
		incoming <- message
	}
}

// handleInbound routes an operator message. Only interaction responses
// are meaningful inbound; anything else is ignored
func (c *Client) handleInbound(message []byte) {
	if gjson.GetBytes(message, "type").String() !=
		string(api.MessageResponse) {
		return
	}

	var msg api.ConsoleMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		slog.Error("Failed to parse console message",
			log.Error(err))
		return
	}
	if msg.Response == nil {
		return
	}
	if err := c.session.Deliver(msg.Response); err != nil {
		slog.Warn("Rejected console response",
			log.RequestID(msg.Response.ID),
			log.Error(err))
	}
}

func (c *Client) send(msg *api.ConsoleMessage) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		slog.Error("WebSocket write failed",
			log.Error(err))
		return false
	}
	return true
}

func (c *Client) sendPing() bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.PingMessage, nil)
	return err == nil
}
