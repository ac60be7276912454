// Package scripting loads Lua-defined agent behaviors and surfaces them
// as core agents. Scripts populate a global `behaviors` table; each entry
// is a table with a `step` function and an optional `advance` function,
// both receiving a host API table scoped to the acting agent.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding loaded behaviors.
// Single-goroutine access only, matching the core's execution model.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all behavior scripts from the
// given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("behaviors", vm.NewTable())

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load behavior scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua behavior script", zap.String("file", path))
	}
	return nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// HasBehavior reports whether a named behavior with a step function is
// loaded.
func (e *Engine) HasBehavior(name string) bool {
	_, ok := e.fn(name, "step").(*lua.LFunction)
	return ok
}

// fn resolves behaviors[name][method], or LNil.
func (e *Engine) fn(name, method string) lua.LValue {
	behaviors, ok := e.vm.GetGlobal("behaviors").(*lua.LTable)
	if !ok {
		return lua.LNil
	}
	b, ok := behaviors.RawGetString(name).(*lua.LTable)
	if !ok {
		return lua.LNil
	}
	return b.RawGetString(method)
}

// call invokes behaviors[name][method](api) under protection.
func (e *Engine) call(name, method string, api *lua.LTable) error {
	fn, ok := e.fn(name, method).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("behavior %q has no %s function", name, method)
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, api); err != nil {
		return fmt.Errorf("behavior %q %s: %w", name, method, err)
	}
	return nil
}
