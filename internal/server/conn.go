package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/nenshoukei/zombals-sub000/internal/protocol"
)

// conn is one client socket. It implements lobby.Conn.
type conn struct {
	id     string
	userID string
	lang   language.Tag

	srv     *Server
	ws      *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newConnID() string {
	id, err := gonanoid.New(12)
	if err != nil {
		return fmt.Sprintf("conn-%d", time.Now().UnixNano())
	}
	return id
}

func newConn(srv *Server, ws *websocket.Conn, userID string, lang language.Tag) *conn {
	id := newConnID()
	return &conn{
		id:      id,
		userID:  userID,
		lang:    lang,
		srv:     srv,
		ws:      ws,
		send:    make(chan []byte, srv.cfg.SendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(srv.cfg.RateLimit), srv.cfg.RateBurst),
		logger:  srv.logger.With(zap.String("conn_id", id), zap.String("user_id", userID)),
	}
}

func (c *conn) ID() string             { return c.id }
func (c *conn) UserID() string         { return c.userID }
func (c *conn) Language() language.Tag { return c.lang }

// Send queues r for the write pump. A client that stops reading fills its
// buffer and is disconnected.
func (c *conn) Send(r protocol.Response) {
	data, err := protocol.EncodeResponse(r)
	if err != nil {
		c.logger.Error("failed to encode response", zap.String("type", string(r.ResponseType())), zap.Error(err))
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, closing socket")
		c.Close()
	}
}

// Close stops both pumps. The write pump sends the close frame.
func (c *conn) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *conn) readPump(ctx context.Context) {
	defer func() {
		c.Close()
		c.srv.detach(c)
	}()

	c.ws.SetReadLimit(c.srv.cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.srv.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.srv.cfg.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("socket closed unexpectedly", zap.Error(err))
			}
			return
		}
		c.handle(ctx, data)
	}
}

func (c *conn) handle(ctx context.Context, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while handling request", zap.Any("panic", r), zap.Stack("stack"))
			c.Send(protocol.Deny(protocol.ReasonError, "internal error"))
		}
	}()

	if !c.limiter.Allow() {
		c.Send(protocol.Deny(protocol.ReasonForbidden, "too many requests"))
		return
	}
	req, err := protocol.DecodeRequest(data)
	if err != nil {
		c.Send(protocol.Deny(protocol.ReasonForbidden, err.Error()))
		return
	}
	c.srv.lobby.Handle(ctx, c, req)
}

func (c *conn) writePump() {
	ticker := time.NewTicker(c.srv.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes what is still buffered so a final DENIED reaches the client.
func (c *conn) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *conn) write(messageType int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.srv.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}
