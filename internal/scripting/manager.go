package scripting

import (
	"context"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battlesim/internal/game/dice"
)

// script is one loaded VM. Its mutex serialises calls; an LState is single-threaded.
type script struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	// src backs engine.random for the call in progress; nil selects the
	// Manager's source. Guarded by mu.
	src dice.Source
}

// Manager owns one sandboxed LState per named script and dispatches calls to
// global Lua functions.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	scripts map[string]*script
	src     dice.Source
	logger  *zap.Logger
}

// NewManager creates a Manager whose engine.random draws from src unless a
// call supplies its own source.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(src dice.Source, logger *zap.Logger) *Manager {
	return &Manager{
		scripts: make(map[string]*script),
		src:     src,
		logger:  logger,
	}
}

// LoadFile creates a sandboxed VM for name, registers the engine.* modules,
// and executes the Lua file at path. A previously loaded script of the same
// name is replaced.
//
// Precondition: name must be non-empty; path must be a readable file.
// Postcondition: returns error on read or Lua load failure; the previous VM, if any, is kept.
func (m *Manager) LoadFile(name, path string, instLimit int) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("scripting: reading %q for %q: %w", path, name, err)
	}
	return m.LoadString(name, string(src), instLimit)
}

// LoadString is LoadFile for in-memory source.
func (m *Manager) LoadString(name, source string, instLimit int) error {
	s := &script{instLimit: instLimit}
	L := NewSandboxedState()
	m.RegisterModules(L, name, func() dice.Source {
		if s.src != nil {
			return s.src
		}
		return m.src
	})
	err := RunLimited(context.Background(), L, instLimit, func() error {
		return L.DoString(source)
	})
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}

	m.mu.Lock()
	if old, ok := m.scripts[name]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	s.L = L
	m.scripts[name] = s
	m.mu.Unlock()
	return nil
}

// Has reports whether a script named name is loaded.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scripts[name]
	return ok
}

// CallHook calls the named Lua global function in name's VM with args.
// Returns (LNil, nil) if the script or the function does not exist.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or a Lua runtime error.
func (m *Manager) CallHook(ctx context.Context, name, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.CallHookWithSource(ctx, name, hook, nil, args...)
}

// CallHookWithSource is CallHook with engine.random bound to src for the
// duration of the call. A nil src uses the Manager's source.
//
// Postcondition: the script's binding to src is released before returning.
func (m *Manager) CallHookWithSource(ctx context.Context, name, hook string, src dice.Source, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	s, ok := m.scripts[name]
	m.mu.RUnlock()
	if !ok {
		return lua.LNil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = src
	defer func() { s.src = nil }()

	fn := s.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	var ret lua.LValue = lua.LNil
	err := RunLimited(ctx, s.L, s.instLimit, func() error {
		if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			return err
		}
		ret = s.L.Get(-1)
		s.L.Pop(1)
		return nil
	})
	if err != nil {
		return lua.LNil, fmt.Errorf("scripting: %s.%s: %w", name, hook, err)
	}
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, s := range m.scripts {
		s.mu.Lock()
		s.L.Close()
		s.mu.Unlock()
		delete(m.scripts, name)
	}
}
