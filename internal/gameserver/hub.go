// Package gameserver hosts the arena: a single event loop that owns the match
// controller, input mapper and fighter selection, and fans views out to every
// connected display.
package gameserver

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/input"
	"github.com/cory-johannsen/arena/internal/game/lobby"
	"github.com/cory-johannsen/arena/internal/game/match"
)

var (
	// ErrMatchInProgress is returned when selection changes are attempted mid-fight.
	ErrMatchInProgress = errors.New("match in progress")
	// ErrHubStopped is returned by calls made after Stop.
	ErrHubStopped = errors.New("arena hub stopped")
)

// defaultCommentaryLimit is how many announcer lines a View carries.
const defaultCommentaryLimit = 5

// HubOptions configures a Hub.
type HubOptions struct {
	Match    match.Options
	Controls input.Controls
	// Announcer may be nil.
	Announcer Announcer
	// CommentaryLimit defaults to 5.
	CommentaryLimit int
}

type request struct {
	fn        func() error
	broadcast bool
	reply     chan error
}

// Hub serializes every arena mutation through one goroutine. Frontends call
// its methods from any goroutine.
type Hub struct {
	provider   fighter.Provider
	ctrl       *match.Controller
	mapper     *input.Mapper
	lobby      *lobby.Lobby
	announcer  Announcer
	logger     *zap.Logger
	commentMax int

	requests chan request
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Loop-owned state.
	pending    []match.Event
	commentary []string
	timers     [2]*combat.CooldownTimer

	subMu       sync.Mutex
	subscribers map[chan<- View]struct{}
}

// NewHub builds a Hub around a fresh match controller.
//
// Precondition: provider and logger must be non-nil.
// Postcondition: Returns an error if opts.Controls is invalid. Call Start before use.
func NewHub(provider fighter.Provider, opts HubOptions, logger *zap.Logger) (*Hub, error) {
	ctrl := match.NewController(provider, opts.Match, logger)
	mapper, err := input.NewMapper(ctrl, opts.Controls)
	if err != nil {
		return nil, err
	}
	limit := opts.CommentaryLimit
	if limit <= 0 {
		limit = defaultCommentaryLimit
	}
	h := &Hub{
		provider:    provider,
		ctrl:        ctrl,
		mapper:      mapper,
		lobby:       lobby.New(),
		announcer:   opts.Announcer,
		logger:      logger,
		commentMax:  limit,
		requests:    make(chan request),
		done:        make(chan struct{}),
		subscribers: make(map[chan<- View]struct{}),
	}
	ctrl.AddListener(match.ListenerFunc(func(e match.Event) {
		h.pending = append(h.pending, e)
	}))
	return h, nil
}

// Start launches the event loop.
//
// Postcondition: The loop runs until Stop is called.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.loop()
}

// Stop terminates the event loop and cancels pending cooldown timers.
// Calling Stop is idempotent.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	h.wg.Wait()
}

func (h *Hub) loop() {
	defer h.wg.Done()
	defer h.stopTimers()
	for {
		select {
		case req := <-h.requests:
			err := req.fn()
			h.drainEvents()
			req.reply <- err
			if req.broadcast {
				h.publish(h.view())
			}
		case <-h.done:
			return
		}
	}
}

// do runs fn on the event loop and waits for its result.
func (h *Hub) do(ctx context.Context, broadcast bool, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := request{fn: fn, broadcast: broadcast, reply: make(chan error, 1)}
	select {
	case h.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers ch to receive a View after every change.
// If ch is full, the view is dropped for that subscriber (non-blocking).
//
// Precondition: ch must not be nil.
func (h *Hub) Subscribe(ch chan<- View) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	h.subscribers[ch] = struct{}{}
}

// Unsubscribe removes ch from the subscriber list.
func (h *Hub) Unsubscribe(ch chan<- View) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	delete(h.subscribers, ch)
}

func (h *Hub) publish(v View) {
	h.subMu.Lock()
	subs := make([]chan<- View, 0, len(h.subscribers))
	for ch := range h.subscribers {
		subs = append(subs, ch)
	}
	h.subMu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Controls returns the key bindings in use.
func (h *Hub) Controls() input.Controls { return h.mapper.Controls() }

// KeyDown forwards a key press to the input mapper.
func (h *Hub) KeyDown(ctx context.Context, code string) error {
	return h.do(ctx, true, func() error { return h.mapper.KeyDown(code) })
}

// KeyUp forwards a key release to the input mapper.
func (h *Hub) KeyUp(ctx context.Context, code string) error {
	return h.do(ctx, true, func() error { return h.mapper.KeyUp(code) })
}

// Tap presses and releases code in one step.
func (h *Hub) Tap(ctx context.Context, code string) error {
	return h.do(ctx, true, func() error { return h.mapper.Tap(code) })
}

// Combo presses side's full critical-hit combination.
func (h *Hub) Combo(ctx context.Context, side combat.Side) error {
	return h.do(ctx, true, func() error { return h.mapper.Combo(side) })
}

// Fighters lists the roster.
func (h *Hub) Fighters(ctx context.Context) ([]fighter.Fighter, error) {
	return h.provider.ListFighters(ctx)
}

// Fighter looks up one roster entry.
func (h *Hub) Fighter(ctx context.Context, id string) (fighter.Fighter, error) {
	return h.provider.GetFighter(ctx, id)
}

// Select adds the fighter with id to the selection.
//
// Postcondition: Returns the side the fighter occupies; fighter.ErrNotFound,
// fighter.ErrRosterFetchFailed, lobby.ErrAlreadySelected or ErrMatchInProgress
// on failure.
func (h *Hub) Select(ctx context.Context, id string) (combat.Side, error) {
	f, err := h.provider.GetFighter(ctx, id)
	if err != nil {
		return combat.Left, err
	}
	var side combat.Side
	err = h.do(ctx, true, func() error {
		if h.ctrl.Status() == combat.StatusInProgress {
			return ErrMatchInProgress
		}
		s, err := h.lobby.Select(f)
		side = s
		return err
	})
	if err != nil {
		return combat.Left, err
	}
	return side, nil
}

// Fight starts a match between the selected fighters. It is a no-op while a
// match is in progress.
//
// Postcondition: Returns lobby.ErrNotReady unless two fighters are selected.
func (h *Hub) Fight(ctx context.Context) error {
	return h.do(ctx, true, func() error {
		if h.ctrl.Status() == combat.StatusInProgress {
			return nil
		}
		left, right, err := h.lobby.Pair()
		if err != nil {
			return err
		}
		h.stopTimers()
		h.mapper.Reset()
		h.commentary = nil
		return h.ctrl.Start(left, right)
	})
}

// Reset discards the match, the selection and the commentary: a new game.
func (h *Hub) Reset(ctx context.Context) error {
	return h.do(ctx, true, func() error {
		h.stopTimers()
		h.ctrl.Reset()
		h.lobby.Clear()
		h.mapper.Reset()
		h.commentary = nil
		return nil
	})
}

// RefreshRoster re-reads the roster and updates selected fighters that changed
// or disappeared. Fighters in a running match are not affected.
func (h *Hub) RefreshRoster(ctx context.Context) error {
	roster, err := h.provider.ListFighters(ctx)
	if err != nil {
		return err
	}
	return h.do(ctx, true, func() error {
		if dropped := h.lobby.Refresh(roster); dropped > 0 {
			h.logger.Info("roster change dropped selections", zap.Int("dropped", dropped))
		}
		return nil
	})
}

// View returns the current arena view.
func (h *Hub) View(ctx context.Context) (View, error) {
	var v View
	err := h.do(ctx, false, func() error {
		v = h.view()
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return v, nil
}

// refresh republishes the view, used when a cooldown lapses.
func (h *Hub) refresh(side combat.Side) {
	err := h.do(context.Background(), true, func() error { return nil })
	if err != nil && !errors.Is(err, ErrHubStopped) {
		h.logger.Warn("cooldown refresh failed", zap.String("side", side.String()), zap.Error(err))
	}
}

func (h *Hub) view() View {
	controls := h.mapper.Controls()
	return View{
		Match:      h.ctrl.Snapshot(),
		Selected:   h.lobby.Selected(),
		Commentary: append([]string(nil), h.commentary...),
		Controls: ControlHints{
			Left:  controls.Left.Hint(),
			Right: controls.Right.Hint(),
		},
	}
}

// drainEvents logs, announces and schedules follow-ups for events emitted
// by the last operation.
func (h *Hub) drainEvents() {
	events := h.pending
	h.pending = nil
	for _, e := range events {
		h.logger.Debug("match event",
			zap.String("type", e.Type.String()),
			zap.String("match_id", e.MatchID),
			zap.String("side", e.Side.String()),
			zap.Float64("damage", e.Damage),
		)
		if e.Type == match.EventCritical {
			h.scheduleRefresh(e.Side)
		}
		if h.announcer != nil {
			if line := announce(h.announcer, e, h.ctrl.Snapshot()); line != "" {
				h.addCommentary(line)
			}
		}
	}
}

func (h *Hub) scheduleRefresh(side combat.Side) {
	if t := h.timers[side]; t != nil {
		t.Stop()
	}
	h.timers[side] = combat.NewCooldownTimer(side, h.ctrl.Cooldown(), h.refresh)
}

func (h *Hub) stopTimers() {
	for i, t := range h.timers {
		if t != nil {
			t.Stop()
			h.timers[i] = nil
		}
	}
}

func (h *Hub) addCommentary(line string) {
	h.commentary = append(h.commentary, line)
	if over := len(h.commentary) - h.commentMax; over > 0 {
		h.commentary = h.commentary[over:]
	}
}
