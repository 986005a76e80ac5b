package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/avelines/salevaultd/internal/core/sale"
)

const (
	wsReadLimit     = 512 * 1024
	wsReadDeadline  = 60 * time.Second
	wsWriteDeadline = 10 * time.Second
	wsPingInterval  = 54 * time.Second
	wsSendBuffer    = 256
)

// Hub serves WebSocket clients and fans engine events out to subscribers.
// It implements sale.Publisher; Publish never blocks on a slow client.
type Hub struct {
	upgrader websocket.Upgrader
	registry *MethodRegistry
	log      *logrus.Entry

	mu     sync.RWMutex
	conns  map[uint64]*wsConn
	nextID atomic.Uint64
}

type wsConn struct {
	id         uint64
	conn       *websocket.Conn
	send       chan []byte
	subscribed atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewHub builds a hub sharing the service's method set.
func NewHub(service *Service, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	h := &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		registry: NewMethodRegistry(),
		log:      logger.WithField("component", "ws"),
		conns:    make(map[uint64]*wsConn),
	}
	service.registerAll(h.registry)
	return h
}

// ServeHTTP upgrades the connection and starts its read and write loops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &wsConn{
		id:     h.nextID.Add(1),
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	go h.readLoop(c)
	go h.writeLoop(c)
}

func (h *Hub) readLoop(c *wsConn) {
	defer h.drop(c)

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Debug("websocket read")
			}
			return
		}
		h.handleMessage(c, message)
	}
}

func (h *Hub) writeLoop(c *wsConn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// wsCommand is the client frame: command and params at the top level, with
// an optional id echoed back in the response.
type wsCommand struct {
	Command string          `json:"command"`
	ID      any             `json:"id,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (h *Hub) handleMessage(c *wsConn, message []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		h.sendError(c, nil, NewRpcError(RpcJSON_INVALID, "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if cmd.Command == "" {
		h.sendError(c, cmd.ID, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "Missing command field"))
		return
	}

	switch cmd.Command {
	case "subscribe":
		c.subscribed.Store(true)
		h.sendResult(c, cmd.ID, map[string]any{"subscribed": true})
		return
	case "unsubscribe":
		c.subscribed.Store(false)
		h.sendResult(c, cmd.ID, map[string]any{"subscribed": false})
		return
	}

	fn, ok := h.registry.Get(cmd.Command)
	if !ok {
		h.sendError(c, cmd.ID, RpcErrorMethodNotFound(cmd.Command))
		return
	}
	result, rpcErr := fn(c.ctx, cmd.Params)
	if rpcErr != nil {
		h.sendError(c, cmd.ID, rpcErr)
		return
	}
	h.sendResult(c, cmd.ID, result)
}

func (h *Hub) sendResult(c *wsConn, id, result any) {
	frame := map[string]any{
		"type":   "response",
		"status": "success",
		"result": result,
	}
	if id != nil {
		frame["id"] = id
	}
	h.enqueue(c, frame)
}

func (h *Hub) sendError(c *wsConn, id any, rpcErr *RpcError) {
	frame := map[string]any{
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		frame["id"] = id
	}
	h.enqueue(c, frame)
}

func (h *Hub) enqueue(c *wsConn, frame map[string]any) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.WithError(err).Error("marshal websocket frame")
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		h.log.WithField("conn", c.id).Warn("send buffer full, dropping connection")
		h.drop(c)
	}
}

// Publish implements sale.Publisher: every subscribed connection receives
// the event frame. Slow clients are skipped, not waited on.
func (h *Hub) Publish(ev sale.Event) {
	frame, err := json.Marshal(map[string]any{
		"type":  "saleEvent",
		"event": ev,
	})
	if err != nil {
		h.log.WithError(err).Error("marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		if !c.subscribed.Load() {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.log.WithField("conn", c.id).Debug("skipping slow subscriber")
		}
	}
}

func (h *Hub) drop(c *wsConn) {
	c.cancel()
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()
	c.conn.Close()
}

// Close terminates every live connection.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		h.drop(c)
	}
}

var _ sale.Publisher = (*Hub)(nil)

// String helps log lines identify a connection.
func (c *wsConn) String() string { return fmt.Sprintf("ws-%d", c.id) }
