package web

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/gameserver"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024
	sendBuffer     = 16
)

// Client message types.
const (
	MsgKeyDown = "keydown"
	MsgKeyUp   = "keyup"
)

// Server message types.
const (
	MsgView  = "view"
	MsgError = "error"
)

// KeyMessage is a key event sent by the browser. Code is a
// KeyboardEvent.code value such as "KeyA".
type KeyMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// ServerMessage is pushed to the browser: the arena view after every change,
// or an error for a rejected event.
type ServerMessage struct {
	Type  string           `json:"type"`
	View  *gameserver.View `json:"view,omitempty"`
	Error string           `json:"error,omitempty"`
}

func deadline() time.Time { return time.Now().Add(writeWait) }

// originChecker accepts same-host origins plus the allowed list.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sockets[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, conn)
}

func (s *Server) serveWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	if !s.track(conn) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline())
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.logger.Info("websocket connected", zap.String("remote_addr", remote))
	defer s.logger.Info("websocket disconnected", zap.String("remote_addr", remote))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan ServerMessage, sendBuffer)
	views := make(chan gameserver.View, sendBuffer)
	s.arena.Subscribe(views)
	defer s.arena.Unsubscribe(views)

	if v, err := s.arena.View(ctx); err == nil {
		out <- ServerMessage{Type: MsgView, View: &v}
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(ctx, conn, out, views)
	}()

	s.readPump(ctx, conn, out)
	cancel()
	<-writerDone
}

// readPump applies key events until the socket closes.
func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, out chan<- ServerMessage) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg KeyMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read", zap.Error(err))
			}
			return
		}
		var err error
		switch msg.Type {
		case MsgKeyDown:
			err = s.arena.KeyDown(ctx, msg.Code)
		case MsgKeyUp:
			err = s.arena.KeyUp(ctx, msg.Code)
		default:
			s.send(out, ServerMessage{Type: MsgError, Error: "unknown message type " + msg.Type})
			continue
		}
		if err != nil {
			s.send(out, ServerMessage{Type: MsgError, Error: gameserver.Describe(err)})
		}
	}
}

// send queues msg without blocking; a client that stops reading loses errors.
func (s *Server) send(out chan<- ServerMessage, msg ServerMessage) {
	select {
	case out <- msg:
	default:
	}
}

// writePump owns every write to conn.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, out <-chan ServerMessage, views <-chan gameserver.View) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	write := func(msg ServerMessage) bool {
		_ = conn.SetWriteDeadline(deadline())
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("websocket write", zap.Error(err))
			_ = conn.Close()
			return false
		}
		return true
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-out:
			if !write(msg) {
				return
			}
		case v := <-views:
			if !write(ServerMessage{Type: MsgView, View: &v}) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline()); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
