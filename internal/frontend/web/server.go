// Package web serves the browser arena: a REST API over the hub, a websocket
// that streams key events in and views out, the embedded arena page and the
// PNG scoreboard card.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/input"
	"github.com/cory-johannsen/arena/internal/game/lobby"
	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/gameserver"
	"github.com/cory-johannsen/arena/internal/observability"
)

//go:embed static
var staticFiles embed.FS

// page is the static tree served at / and /static.
var page = mustPage(staticFiles)

// mustPage roots fsys at static/ and panics unless it holds index.html.
func mustPage(fsys fs.FS) fs.FS {
	sub, err := fs.Sub(fsys, "static")
	if err != nil {
		panic(fmt.Sprintf("web: static files: %v", err))
	}
	if _, err := fs.Stat(sub, "index.html"); err != nil {
		panic(fmt.Sprintf("web: static files: %v", err))
	}
	return sub
}

// Arena is the part of gameserver.Hub the web frontend drives.
type Arena interface {
	Fighters(ctx context.Context) ([]fighter.Fighter, error)
	Fighter(ctx context.Context, id string) (fighter.Fighter, error)
	Select(ctx context.Context, id string) (combat.Side, error)
	Fight(ctx context.Context) error
	Reset(ctx context.Context) error
	KeyDown(ctx context.Context, code string) error
	KeyUp(ctx context.Context, code string) error
	View(ctx context.Context) (gameserver.View, error)
	Controls() input.Controls
	Subscribe(ch chan<- gameserver.View)
	Unsubscribe(ch chan<- gameserver.View)
}

// CardRenderer draws a match snapshot as a PNG. render.Renderer implements it.
type CardRenderer interface {
	WritePNG(ctx context.Context, w io.Writer, snap match.Snapshot) error
}

// Server holds the gin engine and the open websocket sessions.
type Server struct {
	arena    Arena
	card     CardRenderer
	logger   *zap.Logger
	engine   *gin.Engine
	upgrader websocket.Upgrader

	mu      sync.Mutex
	closed  bool
	sockets map[*websocket.Conn]struct{}
}

// Options configures a Server.
type Options struct {
	// ReleaseMode puts gin in release mode.
	ReleaseMode bool
	// AllowedOrigins lists websocket origins besides the page's own; "*" allows any.
	AllowedOrigins []string
}

// NewServer builds the router.
//
// Precondition: arena, card and logger must be non-nil.
func NewServer(arena Arena, card CardRenderer, opts Options, logger *zap.Logger) *Server {
	if opts.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		arena:   arena,
		card:    card,
		logger:  logger,
		sockets: make(map[*websocket.Conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: originChecker(opts.AllowedOrigins)}

	r := gin.New()
	r.Use(observability.GinRecovery(logger), observability.GinLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/", func(c *gin.Context) {
		c.FileFromFS("/", http.FS(page))
	})
	r.StaticFS("/static", http.FS(page))

	api := r.Group("/api")
	{
		api.GET("/fighters", s.listFighters)
		api.GET("/fighters/:id", s.getFighter)
		api.GET("/controls", s.controls)

		arena := api.Group("/arena")
		{
			arena.GET("", s.view)
			arena.POST("/select/:id", s.selectFighter)
			arena.POST("/fight", s.fight)
			arena.POST("/reset", s.reset)
			arena.GET("/card.png", s.cardPNG)
		}
	}
	r.GET("/ws", s.serveWS)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Close disconnects every websocket session and refuses new ones.
// Calling Close is idempotent.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline())
		_ = c.Close()
	}
}

// Sessions returns the number of open websocket sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sockets)
}

// statusFor maps an arena error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fighter.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fighter.ErrRosterFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, lobby.ErrAlreadySelected),
		errors.Is(err, lobby.ErrNotReady),
		errors.Is(err, gameserver.ErrMatchInProgress),
		errors.Is(err, combat.ErrInvalidMatchOperation):
		return http.StatusConflict
	case errors.Is(err, gameserver.ErrHubStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": gameserver.Describe(err)})
}

func (s *Server) listFighters(c *gin.Context) {
	roster, err := s.arena.Fighters(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fighters": roster})
}

func (s *Server) getFighter(c *gin.Context) {
	f, err := s.arena.Fighter(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) controls(c *gin.Context) {
	c.JSON(http.StatusOK, s.arena.Controls())
}

func (s *Server) view(c *gin.Context) {
	v, err := s.arena.View(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) selectFighter(c *gin.Context) {
	side, err := s.arena.Select(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondView(c, gin.H{"side": side.String()})
}

func (s *Server) fight(c *gin.Context) {
	if err := s.arena.Fight(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	s.respondView(c, nil)
}

func (s *Server) reset(c *gin.Context) {
	if err := s.arena.Reset(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	s.respondView(c, nil)
}

// respondView writes the current view, merged with extra top-level fields.
func (s *Server) respondView(c *gin.Context, extra gin.H) {
	v, err := s.arena.View(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	body := gin.H{"view": v}
	for k, val := range extra {
		body[k] = val
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) cardPNG(c *gin.Context) {
	v, err := s.arena.View(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := s.card.WritePNG(c.Request.Context(), c.Writer, v.Match); err != nil {
		s.logger.Warn("writing card", zap.Error(err))
	}
}
