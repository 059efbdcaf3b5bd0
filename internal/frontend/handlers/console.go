// Package handlers provides the Telnet console session: command processing
// and live arena rendering for one connected client.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/frontend/telnet"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/command"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/input"
	"github.com/cory-johannsen/arena/internal/gameserver"
)

// Arena is the part of gameserver.Hub a console session drives.
type Arena interface {
	Fighters(ctx context.Context) ([]fighter.Fighter, error)
	Select(ctx context.Context, id string) (combat.Side, error)
	Fight(ctx context.Context) error
	Reset(ctx context.Context) error
	KeyDown(ctx context.Context, code string) error
	KeyUp(ctx context.Context, code string) error
	Tap(ctx context.Context, code string) error
	Combo(ctx context.Context, side combat.Side) error
	View(ctx context.Context) (gameserver.View, error)
	Controls() input.Controls
	Subscribe(ch chan<- gameserver.View)
	Unsubscribe(ch chan<- gameserver.View)
}

const prompt = telnet.BrightCyan + "arena> " + telnet.Reset

// errQuit ends the session cleanly.
var errQuit = errors.New("quit")

// ConsoleHandler implements telnet.SessionHandler: every session sees the
// shared arena redrawn after each change and can drive either side.
type ConsoleHandler struct {
	arena    Arena
	registry *command.Registry
	logger   *zap.Logger
}

// NewConsoleHandler creates a ConsoleHandler over arena.
//
// Precondition: arena and logger must be non-nil.
func NewConsoleHandler(arena Arena, logger *zap.Logger) *ConsoleHandler {
	return &ConsoleHandler{
		arena:    arena,
		registry: command.DefaultRegistry(),
		logger:   logger,
	}
}

// session is the per-connection screen state. Both the command loop and the
// view forwarder redraw through it.
type session struct {
	conn *telnet.Conn

	mu     sync.Mutex
	view   gameserver.View
	notice []string
}

func (s *session) draw() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := RenderArena(s.view)
	if len(s.notice) > 0 {
		lines = append(lines, "")
		lines = append(lines, s.notice...)
	}
	if err := s.conn.WriteFrame(lines); err != nil {
		return err
	}
	return s.conn.WritePrompt(prompt)
}

func (s *session) setView(v gameserver.View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

func (s *session) setNotice(lines []string) {
	s.mu.Lock()
	s.notice = lines
	s.mu.Unlock()
}

// HandleSession runs the console for one client until quit, disconnect or
// cancellation.
//
// Postcondition: Returns nil on quit; the subscription is always removed.
func (h *ConsoleHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	s := &session{conn: conn}
	v, err := h.arena.View(ctx)
	if err != nil {
		return fmt.Errorf("reading arena view: %w", err)
	}
	s.setView(v)
	s.setNotice([]string{telnet.Colorize(telnet.Dim, "Type 'help' for commands.")})
	if err := s.draw(); err != nil {
		return err
	}

	views := make(chan gameserver.View, 8)
	h.arena.Subscribe(views)
	defer h.arena.Unsubscribe(views)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.forwardViews(ctx, s, views)
	}()

	err = h.commandLoop(ctx, s)
	cancel()
	wg.Wait()
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (h *ConsoleHandler) forwardViews(ctx context.Context, s *session, views <-chan gameserver.View) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-views:
			s.setView(v)
			if err := s.draw(); err != nil {
				h.logger.Debug("console redraw failed", zap.String("session", s.conn.ID()), zap.Error(err))
				return
			}
		}
	}
}

func (h *ConsoleHandler) commandLoop(ctx context.Context, s *session) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		var notice []string
		for _, parsed := range command.ParseLine(line) {
			out, err := h.dispatch(ctx, parsed)
			if errors.Is(err, errQuit) {
				_ = s.conn.WriteLine("\r\n" + telnet.Colorize(telnet.Cyan, "The crowd goes quiet. Goodbye."))
				return err
			}
			if err != nil {
				notice = append(notice, RenderError(err))
				continue
			}
			notice = append(notice, out...)
		}
		s.setNotice(notice)

		if v, err := h.arena.View(ctx); err == nil {
			s.setView(v)
		}
		if err := s.draw(); err != nil {
			return err
		}
	}
}

// dispatch executes one parsed command and returns its reply lines.
func (h *ConsoleHandler) dispatch(ctx context.Context, parsed command.ParseResult) ([]string, error) {
	cmd, ok := h.registry.Resolve(parsed.Command)
	if !ok {
		return nil, fmt.Errorf("unknown command %q; type 'help'", parsed.Command)
	}
	if len(parsed.Args) < cmd.MinArgs {
		return nil, fmt.Errorf("usage: %s", cmd.Usage)
	}

	switch cmd.Handler {
	case command.HandlerFighters:
		roster, err := h.arena.Fighters(ctx)
		if err != nil {
			return nil, err
		}
		v, err := h.arena.View(ctx)
		if err != nil {
			return nil, err
		}
		return RenderFighters(roster, v.Selected), nil

	case command.HandlerSelect:
		id := strings.ToLower(parsed.Args[0])
		side, err := h.arena.Select(ctx, id)
		if err != nil {
			return nil, err
		}
		return []string{telnet.Colorf(telnet.Green, "Selected %s for %s.", id, slotName(side))}, nil

	case command.HandlerFight:
		return nil, h.arena.Fight(ctx)

	case command.HandlerReset:
		return nil, h.arena.Reset(ctx)

	case command.HandlerStatus:
		return nil, nil

	case command.HandlerPress, command.HandlerRelease, command.HandlerTap:
		return nil, h.keys(ctx, cmd.Handler, parsed.Args)

	case command.HandlerCombo:
		side, err := combat.ParseSide(parsed.Args[0])
		if err != nil {
			return nil, err
		}
		return nil, h.arena.Combo(ctx, side)

	case command.HandlerKeys:
		return RenderKeys(h.arena.Controls()), nil

	case command.HandlerHelp:
		return h.registry.HelpLines(), nil

	case command.HandlerQuit:
		return nil, errQuit
	}
	return nil, fmt.Errorf("command %q has no handler", cmd.Name)
}

// keys forwards key events in argument order. Unbound keys are rejected
// before anything is sent.
func (h *ConsoleHandler) keys(ctx context.Context, handler string, args []string) error {
	bound := make(map[string]struct{})
	c := h.arena.Controls()
	for _, k := range append(c.Left.Keys(), c.Right.Keys()...) {
		bound[k] = struct{}{}
	}
	codes := make([]string, len(args))
	var unbound []string
	for i, a := range args {
		codes[i] = input.NormalizeKey(a)
		if _, ok := bound[codes[i]]; !ok {
			unbound = append(unbound, a)
		}
	}
	if len(unbound) > 0 {
		return fmt.Errorf("key not bound: %s; type 'keys'", strings.Join(unbound, ", "))
	}

	var errs []error
	for _, code := range codes {
		switch handler {
		case command.HandlerPress:
			errs = append(errs, h.arena.KeyDown(ctx, code))
		case command.HandlerRelease:
			errs = append(errs, h.arena.KeyUp(ctx, code))
		default:
			errs = append(errs, h.arena.Tap(ctx, code))
		}
	}
	return errors.Join(errs...)
}

func slotName(side combat.Side) string {
	if side == combat.Right {
		return "P2 (right)"
	}
	return "P1 (left)"
}
