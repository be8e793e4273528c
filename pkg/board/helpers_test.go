package board

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dino.go/pkg/wire"
)

const testTimeout = time.Second

type testAction bool

func (a testAction) String() string {
	if a {
		return "on"
	}
	return "off"
}

type testComponent struct {
	*Base
	failWith error
	panicMsg string
	initErr  error
}

func newTestComponent(b *Board, role Role, pins ...int) *testComponent {
	return &testComponent{Base: NewBase(b, Binding{Name: string(role), Role: role, Pins: pins})}
}

func (c *testComponent) Apply(a Action) (*wire.Command, error) {
	on, ok := a.(testAction)
	if !ok {
		return nil, Unsupported(c.Role(), a)
	}
	return wire.DigitalWrite(c.Pin(0), bool(on)), nil
}

func (c *testComponent) OnEvent(ev *wire.Event) error {
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	if c.failWith != nil {
		return c.failWith
	}
	switch ev.Kind {
	case wire.KindAck:
		if ev.Acked() == wire.OpDigitalWrite && len(ev.Data) == 1 {
			c.SetValue(ev.Data[0] != 0)
		}
	case wire.KindDigital:
		c.SetValue(ev.High())
	}
	return nil
}

func (c *testComponent) Init(ctx context.Context) error {
	if c.initErr != nil {
		return c.initErr
	}
	return c.Send(ctx, wire.SetMode(c.Pin(0), wire.ModeOutput))
}

func testFactories() Factories {
	return Factories{
		"led": func(b *Board, bd Binding) (Component, error) {
			if err := bd.RequirePins(1); err != nil {
				return nil, err
			}
			c := &testComponent{Base: NewBase(b, bd)}
			if fail, _ := bd.ParamBool("fail_init", false); fail {
				c.initErr = errors.New("init failed")
			}
			return c, nil
		},
	}
}

// testTransport connects the board to a pipe the test writes device bytes into.
type testTransport struct {
	reader *io.PipeReader
	device *io.PipeWriter

	lock     sync.Mutex
	written  bytes.Buffer
	writes   int
	writeErr error
}

func newTestTransport() *testTransport {
	r, w := io.Pipe()
	return &testTransport{reader: r, device: w}
}

func (t *testTransport) Read(p []byte) (int, error) {
	return t.reader.Read(p)
}

func (t *testTransport) Write(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	t.writes++
	return t.written.Write(p)
}

func (t *testTransport) Close() error {
	return t.reader.Close()
}

func (t *testTransport) failWrites(err error) {
	t.lock.Lock()
	t.writeErr = err
	t.lock.Unlock()
}

func (t *testTransport) takeWritten() []byte {
	t.lock.Lock()
	defer t.lock.Unlock()
	b := bytes.Clone(t.written.Bytes())
	t.written.Reset()
	return b
}

type boardTestEnv struct {
	t        *testing.T
	tr       *testTransport
	board    *Board
	diags    chan Diagnostic
	observed chan *wire.Event
	runErr   chan error
	cancel   context.CancelFunc
}

func newBoardTestEnv(t *testing.T, opts ...Option) *boardTestEnv {
	e := &boardTestEnv{
		t:        t,
		tr:       newTestTransport(),
		diags:    make(chan Diagnostic, 64),
		observed: make(chan *wire.Event, 64),
		runErr:   make(chan error, 1),
	}
	opts = append([]Option{
		WithFactories(testFactories()),
		WithDiagnostics(HandleDiagnosticFunc(func(_ context.Context, d Diagnostic) {
			e.diags <- d
		})),
	}, opts...)
	e.board = New(e.tr, opts...)
	e.board.Observe(ListenerFunc(func(_ context.Context, _ Component, ev *wire.Event) error {
		e.observed <- ev
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go func() {
		e.runErr <- e.board.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		e.board.Close()
	})
	return e
}

func (e *boardTestEnv) feed(b []byte) {
	_, err := e.tr.device.Write(b)
	require.NoError(e.t, err)
}

func (e *boardTestEnv) feedEvents(events ...*wire.Event) {
	for _, ev := range events {
		f, err := ev.Frame()
		require.NoError(e.t, err)
		b, err := f.Bytes()
		require.NoError(e.t, err)
		e.feed(b)
	}
}

func (e *boardTestEnv) expectEvents(n int) []*wire.Event {
	var events []*wire.Event
	for len(events) < n {
		select {
		case ev := <-e.observed:
			events = append(events, ev)
		case <-time.After(testTimeout):
			e.t.Fatalf("expect %d events, got %d", n, len(events))
		}
	}
	return events
}

func (e *boardTestEnv) expectDiag(kind DiagnosticKind) Diagnostic {
	select {
	case d := <-e.diags:
		require.Equal(e.t, kind, d.Kind, "%v", d)
		return d
	case <-time.After(testTimeout):
		e.t.Fatalf("expect diagnostic %v", kind)
	}
	return Diagnostic{}
}

func (e *boardTestEnv) expectNoDiag() {
	select {
	case d := <-e.diags:
		e.t.Fatalf("unexpected diagnostic %v", d)
	default:
	}
}

func (e *boardTestEnv) expectRunErr() error {
	select {
	case err := <-e.runErr:
		return err
	case <-time.After(testTimeout):
		e.t.Fatal("Run didn't return")
	}
	return nil
}
