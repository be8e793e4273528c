package board

import (
	"container/list"
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/robotalks/dino.go/pkg/wire"
)

// Token identifies a registration.
type Token string

type record struct {
	token     Token
	role      Role
	pins      []int
	handle    Component
	listeners list.List
}

// Registry maps pins to components and dispatches events.
// Components are used as map keys and must be comparable, e.g. pointers.
type Registry struct {
	diag DiagnosticHandler

	lock     sync.Mutex
	byPin    map[int]*record
	byToken  map[Token]*record
	byHandle map[Component]*record
}

// NewRegistry creates an empty registry reporting to diag.
func NewRegistry(diag DiagnosticHandler) *Registry {
	return &Registry{
		diag:     diag,
		byPin:    make(map[int]*record),
		byToken:  make(map[Token]*record),
		byHandle: make(map[Component]*record),
	}
}

// Register claims pins for a component. It fails without side effects if
// any pin is already claimed.
func (r *Registry) Register(pins []int, role Role, c Component) (Token, error) {
	pins = slices.Clone(pins)
	slices.Sort(pins)
	pins = slices.Compact(pins)
	if len(pins) == 0 {
		return "", ErrNoPins
	}

	r.lock.Lock()
	if _, exist := r.byHandle[c]; exist {
		r.lock.Unlock()
		return "", ErrRegistered
	}
	for _, pin := range pins {
		if owner, ok := r.byPin[pin]; ok {
			r.lock.Unlock()
			err := &PinConflictError{Pin: pin, Owner: owner.role, Role: role}
			r.report(context.Background(), Diagnostic{Kind: DiagPinConflict, Pin: pin, Err: err})
			return "", err
		}
	}
	rec := &record{
		token:  Token(uuid.NewString()),
		role:   role,
		pins:   pins,
		handle: c,
	}
	for _, pin := range pins {
		r.byPin[pin] = rec
	}
	r.byToken[rec.token] = rec
	r.byHandle[c] = rec
	r.lock.Unlock()
	return rec.token, nil
}

// Unregister releases the pins of a registration. It returns false if the
// token is unknown, e.g. already unregistered.
func (r *Registry) Unregister(token Token) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	rec, ok := r.byToken[token]
	if !ok {
		return false
	}
	for _, pin := range rec.pins {
		delete(r.byPin, pin)
	}
	delete(r.byToken, token)
	delete(r.byHandle, rec.handle)
	return true
}

// Lookup finds the component owning a pin.
func (r *Registry) Lookup(pin int) (Component, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if rec, ok := r.byPin[pin]; ok {
		return rec.handle, true
	}
	return nil, false
}

// Components returns the registered components ordered by their lowest pin.
func (r *Registry) Components() []Component {
	r.lock.Lock()
	recs := make([]*record, 0, len(r.byToken))
	for _, rec := range r.byToken {
		recs = append(recs, rec)
	}
	r.lock.Unlock()
	sort.Slice(recs, func(i, j int) bool { return recs[i].pins[0] < recs[j].pins[0] })
	comps := make([]Component, len(recs))
	for n, rec := range recs {
		comps[n] = rec.handle
	}
	return comps
}

// Subscribe appends a listener to a registered component.
func (r *Registry) Subscribe(c Component, l Listener) (*Subscription, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	rec, ok := r.byHandle[c]
	if !ok {
		return nil, ErrNotAttached
	}
	elem := rec.listeners.PushBack(l)
	return newSubscription(func() {
		r.lock.Lock()
		rec.listeners.Remove(elem)
		r.lock.Unlock()
	}), nil
}

// Dispatch delivers an event to the component owning its pin, then to the
// component's listeners in subscription order. It returns the component,
// or nil if the pin is unclaimed.
func (r *Registry) Dispatch(ctx context.Context, ev *wire.Event) Component {
	r.lock.Lock()
	rec, ok := r.byPin[ev.Pin]
	if !ok {
		r.lock.Unlock()
		r.report(ctx, Diagnostic{Kind: DiagUnhandledEvent, Pin: ev.Pin, Err: &UnhandledEventError{Event: ev}})
		return nil
	}
	handle := rec.handle
	listeners := make([]Listener, 0, rec.listeners.Len())
	for elem := rec.listeners.Front(); elem != nil; elem = elem.Next() {
		listeners = append(listeners, elem.Value.(Listener))
	}
	r.lock.Unlock()

	if err := invokeComponent(handle, ev); err != nil {
		r.report(ctx, Diagnostic{Kind: DiagComponentError, Pin: ev.Pin, Err: err})
		return handle
	}
	for n, l := range listeners {
		if err := invokeListener(ctx, l, handle, ev); err != nil {
			err.Index = n
			r.report(ctx, Diagnostic{Kind: DiagListenerError, Pin: ev.Pin, Err: err})
		}
	}
	return handle
}

func invokeComponent(c Component, ev *wire.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ComponentPanicError{Pin: ev.Pin, Role: c.Role(), Panic: r}
		}
	}()
	return c.OnEvent(ev)
}

func (r *Registry) report(ctx context.Context, d Diagnostic) {
	if r.diag != nil {
		r.diag.HandleDiagnostic(ctx, d)
	}
}
