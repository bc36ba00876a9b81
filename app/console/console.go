package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

var (
	ErrUnknownModule  = errors.New("unknown module")
	ErrUnknownCommand = errors.New("unknown command")
	ErrWrongDataType  = errors.New("wrong data type")
)

// Handler runs one command of a module. data is the raw JSON payload of the
// request and may be empty.
type Handler func(ctx context.Context, command string, data json.RawMessage) (any, error)

// Module is a named set of commands served by a single handler.
type Module struct {
	Name     string
	Commands []string
	Handler  Handler
}

type ModuleInfo struct {
	Name     string   `json:"name"`
	Commands []string `json:"commands"`
}

// Console dispatches commands to registered modules by name.
type Console struct {
	mu      sync.RWMutex
	modules map[string]Module
}

func New() *Console {
	c := &Console{modules: make(map[string]Module)}
	c.modules["console"] = Module{
		Name:     "console",
		Commands: []string{"modules"},
		Handler: func(ctx context.Context, command string, data json.RawMessage) (any, error) {
			return c.Modules(), nil
		},
	}
	return c
}

func (c *Console) Register(m Module) error {
	if m.Name == "" || m.Handler == nil {
		return fmt.Errorf("module needs a name and a handler")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.modules[m.Name]; ok {
		return fmt.Errorf("module %q already registered", m.Name)
	}
	m.Commands = slices.Clone(m.Commands)
	sort.Strings(m.Commands)
	c.modules[m.Name] = m
	return nil
}

func (c *Console) Dispatch(ctx context.Context, module, command string, data json.RawMessage) (any, error) {
	c.mu.RLock()
	m, ok := c.modules[module]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	if !slices.Contains(m.Commands, command) {
		return nil, fmt.Errorf("%w: %q has no command %q", ErrUnknownCommand, module, command)
	}
	return m.Handler(ctx, command, data)
}

func (c *Console) Modules() []ModuleInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]ModuleInfo, 0, len(c.modules))
	for _, m := range c.modules {
		infos = append(infos, ModuleInfo{Name: m.Name, Commands: slices.Clone(m.Commands)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// decode reads the command payload into v. An empty payload leaves v as is.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrWrongDataType, err)
	}
	return nil
}
