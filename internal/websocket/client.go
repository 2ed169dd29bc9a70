package websocket

import (
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время на запись сообщения клиенту
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 30 * time.Second

	// Пинги должны уходить чаще, чем истекает pongWait
	pingPeriod = (pongWait * 9) / 10

	// Лента только на чтение, входящие сообщения - служебные
	maxMessageSize = 512

	defaultClientBufferSize = 128
)

// NewUpgrader создает upgrader, пропускающий только разрешенные Origin.
// Запросы без Origin (не из браузера) пропускаются.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowed[origin]; ok {
				return true
			}
			log.Printf("[LiveFeed] Rejected unauthorized origin: %s", origin)
			return false
		},
	}
}

// Client - одно подключение администратора к ленте
type Client struct {
	AccountID    string
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	sendClosed atomic.Bool
}

// NewClient создает клиента для уже установленного соединения
func NewClient(hub *Hub, conn *websocket.Conn, accountID string) *Client {
	return &Client{
		AccountID:    accountID,
		ConnectionID: uuid.NewString(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, defaultClientBufferSize),
	}
}

// Serve регистрирует клиента в хабе и обслуживает соединение до его закрытия
func (c *Client) Serve() {
	if !c.hub.Register(c) {
		c.conn.Close()
		return
	}

	if hello, err := NewEvent(EventConnected, map[string]string{"connection_id": c.ConnectionID}).Marshal(); err == nil {
		c.enqueue(hello)
	}

	go c.writePump()
	c.readPump()
}

// CloseSend закрывает канал отправки ровно один раз
func (c *Client) CloseSend() {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
	}
}

// enqueue кладет сообщение в буфер клиента, не блокируясь
func (c *Client) enqueue(message []byte) bool {
	if c.sendClosed.Load() {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		log.Printf("[LiveFeed] Read pump stopped for account %s (conn %s)", c.AccountID, c.ConnectionID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[LiveFeed] Read error for account %s (conn %s): %v", c.AccountID, c.ConnectionID, err)
			}
			return
		}
		// входящие сообщения игнорируются
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// хаб закрыл канал
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[LiveFeed] Write error for account %s (conn %s, type %s): %v",
					c.AccountID, c.ConnectionID, messageTypeFromBytes(message), err)
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
