package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// FighterInfo is a snapshot of one side passed to Lua hooks as a table with
// fields name, side, health, max_health, attack and defense.
type FighterInfo struct {
	Name      string
	Side      string
	Health    float64
	MaxHealth float64
	Attack    float64
	Defense   float64
}

// Manager owns one sandboxed LState loaded from a script directory and
// dispatches hook calls into it.
//
// Manager is safe for concurrent use; calls into the VM are serialized.
type Manager struct {
	mu        sync.Mutex
	state     *lua.LState
	dir       string
	instLimit int
	src       dice.Source
	logger    *zap.Logger
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: src and logger must be non-nil.
// Postcondition: CallHook returns LNil until Load succeeds.
func NewManager(src dice.Source, logger *zap.Logger) *Manager {
	return &Manager{src: src, logger: logger}
}

// Load creates a sandboxed VM, registers the arena.* module, then executes
// every *.lua file in scriptDir in lexicographic order. Each file runs under
// its own instruction budget. A successful load replaces the previous VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: On error the previous VM (if any) stays active.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, path := range luaFiles {
		if err := withBudget(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	old := m.state
	m.state, m.dir, m.instLimit = L, scriptDir, instLimit
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Info("scripts loaded", zap.String("dir", scriptDir), zap.Int("files", len(luaFiles)))
	return nil
}

// Reload re-runs Load with the last directory and limit.
//
// Postcondition: Returns an error if Load was never called.
func (m *Manager) Reload() error {
	m.mu.Lock()
	dir, limit := m.dir, m.instLimit
	m.mu.Unlock()
	if dir == "" {
		return fmt.Errorf("scripting: reload before load")
	}
	return m.Load(dir, limit)
}

// HasHook reports whether the loaded scripts define a global function named hook.
func (m *Manager) HasHook(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return false
	}
	_, ok := m.state.GetGlobal(hook).(*lua.LFunction)
	return ok
}

// CallHook calls the named Lua global function with args converted by
// toLValue. Returns (LNil, nil) if no scripts are loaded or the hook is not
// defined. Lua runtime errors, including exhausting the instruction budget,
// are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...any) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L := m.state
	if L == nil {
		m.logger.Debug("scripting: no VM loaded", zap.String("hook", hook))
		return lua.LNil, nil
	}
	fn, ok := L.GetGlobal(hook).(*lua.LFunction)
	if !ok {
		return lua.LNil, nil
	}

	largs := make([]lua.LValue, 0, len(args))
	for i, a := range args {
		v, err := toLValue(L, a)
		if err != nil {
			return lua.LNil, fmt.Errorf("scripting: %s arg %d: %w", hook, i, err)
		}
		largs = append(largs, v)
	}

	err := withBudget(L, m.instLimit, func() error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, largs...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Announce calls hook and returns its result when it is a string, else "".
func (m *Manager) Announce(hook string, args ...any) string {
	ret, err := m.CallHook(hook, args...)
	if err != nil {
		m.logger.Warn("scripting: hook call failed", zap.String("hook", hook), zap.Error(err))
		return ""
	}
	if s, ok := ret.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}

func toLValue(L *lua.LState, v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case lua.LValue:
		return x, nil
	case string:
		return lua.LString(x), nil
	case float64:
		return lua.LNumber(x), nil
	case int:
		return lua.LNumber(x), nil
	case bool:
		return lua.LBool(x), nil
	case FighterInfo:
		t := L.NewTable()
		t.RawSetString("name", lua.LString(x.Name))
		t.RawSetString("side", lua.LString(x.Side))
		t.RawSetString("health", lua.LNumber(x.Health))
		t.RawSetString("max_health", lua.LNumber(x.MaxHealth))
		t.RawSetString("attack", lua.LNumber(x.Attack))
		t.RawSetString("defense", lua.LNumber(x.Defense))
		return t, nil
	default:
		return lua.LNil, fmt.Errorf("unsupported type %T", v)
	}
}
