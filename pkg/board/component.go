package board

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/robotalks/dino.go/pkg/wire"
)

// Role is the kind of a component, e.g. "led".
type Role string

// Action is a request understood by a component's Apply.
type Action interface {
	fmt.Stringer
}

// Component is a peripheral bound to one or more pins.
type Component interface {
	// Role returns the kind of the component.
	Role() Role
	// Pins returns the claimed pins.
	Pins() []int
	// Apply translates an action into a command without side effects.
	// It returns a nil command if the action needs nothing to be sent.
	Apply(Action) (*wire.Command, error)
	// OnEvent updates the cached state from an event on one of the pins.
	// It's called from the reader loop.
	OnEvent(*wire.Event) error
	// Value returns the last known state.
	Value() any
	// Detach releases the pins. It's idempotent.
	Detach() error
}

// Initializer is implemented by components which configure the board
// after registration, e.g. setting pin modes or enabling listeners.
type Initializer interface {
	Init(context.Context) error
}

type attacher interface {
	attached(reg *Registry, token Token, self Component)
}

type valueBox struct {
	v any
}

// Base implements the bookkeeping shared by components.
// Variants embed *Base and implement Apply and OnEvent.
type Base struct {
	name  string
	role  Role
	pins  []int
	board *Board
	value atomic.Value

	lock  sync.Mutex
	reg   *Registry
	token Token
	self  Component
}

// NewBase creates a Base from a binding.
func NewBase(b *Board, bd Binding) *Base {
	return &Base{
		name:  bd.Name,
		role:  bd.Role,
		pins:  slices.Clone(bd.Pins),
		board: b,
	}
}

// Name returns the binding name.
func (c *Base) Name() string {
	return c.name
}

// Role implements Component.
func (c *Base) Role() Role {
	return c.role
}

// Pins implements Component.
func (c *Base) Pins() []int {
	return slices.Clone(c.pins)
}

// Pin returns the nth pin of the binding.
func (c *Base) Pin(n int) int {
	return c.pins[n]
}

// Board returns the board the component belongs to.
func (c *Base) Board() *Board {
	return c.board
}

// Value implements Component.
func (c *Base) Value() any {
	if box, ok := c.value.Load().(valueBox); ok {
		return box.v
	}
	return nil
}

// SetValue replaces the cached value.
func (c *Base) SetValue(v any) {
	c.value.Store(valueBox{v: v})
}

// Token returns the registration token, empty if not attached.
func (c *Base) Token() Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.token
}

// Attached indicates the component currently owns its pins.
func (c *Base) Attached() bool {
	return c.Token() != ""
}

// Send sends commands through the board.
func (c *Base) Send(ctx context.Context, cmds ...*wire.Command) error {
	if c.board == nil {
		return ErrNotAttached
	}
	return c.board.Send(ctx, cmds...)
}

// Do applies an action and sends the resulting command.
func (c *Base) Do(ctx context.Context, action Action) error {
	c.lock.Lock()
	self := c.self
	c.lock.Unlock()
	if self == nil || c.board == nil {
		return ErrNotAttached
	}
	return c.board.Do(ctx, self, action)
}

// Detach implements Component.
func (c *Base) Detach() error {
	c.lock.Lock()
	reg, token := c.reg, c.token
	c.reg, c.token, c.self = nil, "", nil
	c.lock.Unlock()
	if reg != nil {
		reg.Unregister(token)
	}
	return nil
}

func (c *Base) attached(reg *Registry, token Token, self Component) {
	c.lock.Lock()
	c.reg, c.token, c.self = reg, token, self
	c.lock.Unlock()
}
