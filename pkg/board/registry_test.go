package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dino.go/pkg/wire"
)

type diagRecorder struct {
	diags []Diagnostic
}

func (r *diagRecorder) HandleDiagnostic(_ context.Context, d Diagnostic) {
	r.diags = append(r.diags, d)
}

func TestRegistryPinConflict(t *testing.T) {
	var rec diagRecorder
	r := NewRegistry(&rec)
	first := newTestComponent(nil, "rgb_led", 1, 2, 3)
	second := newTestComponent(nil, "led", 3)

	token, err := r.Register(first.Pins(), first.Role(), first)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = r.Register(second.Pins(), second.Role(), second)
	require.ErrorIs(t, err, ErrPinConflict)
	var conflict *PinConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 3, conflict.Pin)
	assert.Equal(t, Role("rgb_led"), conflict.Owner)
	assert.Equal(t, Role("led"), conflict.Role)
	require.Len(t, rec.diags, 1)
	assert.Equal(t, DiagPinConflict, rec.diags[0].Kind)

	c, ok := r.Lookup(3)
	require.True(t, ok)
	require.Equal(t, first, c)
	require.Equal(t, first, r.Dispatch(context.Background(), wire.DigitalEvent(3, true)))
	require.Equal(t, true, first.Value())
	require.Len(t, rec.diags, 1)
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry(nil)
	c := newTestComponent(nil, "led", 4)

	_, err := r.Register(nil, "led", c)
	require.ErrorIs(t, err, ErrNoPins)

	token, err := r.Register([]int{4, 4, 5}, "led", c)
	require.NoError(t, err)
	_, err = r.Register([]int{6}, "led", c)
	require.ErrorIs(t, err, ErrRegistered)

	require.Equal(t, []Component{c}, r.Components())
	require.True(t, r.Unregister(token))
	require.False(t, r.Unregister(token))
	require.Empty(t, r.Components())
	for _, pin := range []int{4, 5} {
		_, ok := r.Lookup(pin)
		require.False(t, ok)
	}

	other := newTestComponent(nil, "led", 5)
	_, err = r.Register(other.Pins(), other.Role(), other)
	require.NoError(t, err)
}

func TestRegistryComponentsOrder(t *testing.T) {
	r := NewRegistry(nil)
	var comps []Component
	for _, pin := range []int{9, 2, 5} {
		c := newTestComponent(nil, "led", pin)
		_, err := r.Register(c.Pins(), c.Role(), c)
		require.NoError(t, err)
		comps = append(comps, c)
	}
	require.Equal(t, []Component{comps[1], comps[2], comps[0]}, r.Components())
}

func TestRegistryUnhandledEvent(t *testing.T) {
	var rec diagRecorder
	r := NewRegistry(&rec)
	c := newTestComponent(nil, "led", 1)
	_, err := r.Register(c.Pins(), c.Role(), c)
	require.NoError(t, err)

	require.Nil(t, r.Dispatch(context.Background(), wire.AnalogEvent(2, 10)))
	require.Len(t, rec.diags, 1)
	assert.Equal(t, DiagUnhandledEvent, rec.diags[0].Kind)
	assert.Equal(t, 2, rec.diags[0].Pin)
	require.Nil(t, c.Value())
}

func TestRegistrySubscriptions(t *testing.T) {
	var rec diagRecorder
	r := NewRegistry(&rec)
	c := newTestComponent(nil, "button", 7)
	_, err := r.Register(c.Pins(), c.Role(), c)
	require.NoError(t, err)

	var calls []string
	listen := func(name string) Listener {
		return ListenerFunc(func(context.Context, Component, *wire.Event) error {
			calls = append(calls, name)
			return nil
		})
	}
	subA, err := r.Subscribe(c, listen("a"))
	require.NoError(t, err)
	var subB *Subscription
	subB, err = r.Subscribe(c, ListenerFunc(func(context.Context, Component, *wire.Event) error {
		calls = append(calls, "b")
		// removing itself while dispatching must not deadlock.
		return subB.Close()
	}))
	require.NoError(t, err)
	_, err = r.Subscribe(c, listen("c"))
	require.NoError(t, err)

	ctx := context.Background()
	r.Dispatch(ctx, wire.DigitalEvent(7, true))
	require.Equal(t, []string{"a", "b", "c"}, calls)

	calls = nil
	require.NoError(t, subA.Close())
	require.NoError(t, subA.Close())
	r.Dispatch(ctx, wire.DigitalEvent(7, false))
	require.Equal(t, []string{"c"}, calls)
	require.Empty(t, rec.diags)
}
