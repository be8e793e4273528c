package board

import (
	"container/list"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/robotalks/dino.go/pkg/wire"
)

// DefaultReadBufferSize is the default size of a transport read.
const DefaultReadBufferSize = 256

// Transport is the byte stream connected to the board.
// Close must unblock a pending Read.
type Transport interface {
	io.ReadWriteCloser
}

// Option configures a Board.
type Option func(*Board)

// WithFactories sets the component factories used by Attach.
func WithFactories(f Factories) Option {
	return func(b *Board) {
		b.factories = f
	}
}

// WithDiagnostics sets the diagnostic handler. The default is LogDiagnostics.
func WithDiagnostics(h DiagnosticHandler) Option {
	return func(b *Board) {
		b.diag = h
	}
}

// WithAnalogBits sets the ADC resolution of the board.
func WithAnalogBits(bits uint) Option {
	return func(b *Board) {
		b.decoder.AnalogBits = bits
	}
}

// WithReadBufferSize sets the size of transport reads.
func WithReadBufferSize(size int) Option {
	return func(b *Board) {
		if size > 0 {
			b.readBufSize = size
		}
	}
}

// Stats counts board activity.
type Stats struct {
	Frames          uint64
	Events          uint64
	Corrupt         uint64
	Skipped         uint64
	Unhandled       uint64
	Commands        uint64
	ListenerErrors  uint64
	ComponentErrors uint64
}

// Board is a session with a connected microcontroller.
type Board struct {
	transport   Transport
	factories   Factories
	diag        DiagnosticHandler
	registry    *Registry
	decoder     *wire.Decoder
	readBufSize int

	writeLock sync.Mutex

	observers list.List
	obsLock   sync.Mutex

	running      atomic.Bool
	closed       atomic.Bool
	disconnected atomic.Bool
	closeOnce    sync.Once
	closeErr     error
	doneCh       chan struct{}
	errLock      sync.Mutex
	err          error

	frames          atomic.Uint64
	events          atomic.Uint64
	corrupt         atomic.Uint64
	skipped         atomic.Uint64
	unhandled       atomic.Uint64
	commands        atomic.Uint64
	listenerErrors  atomic.Uint64
	componentErrors atomic.Uint64
}

// New creates a Board over an opened transport.
func New(t Transport, opts ...Option) *Board {
	b := &Board{
		transport:   t,
		diag:        LogDiagnostics,
		decoder:     wire.NewDecoder(),
		readBufSize: DefaultReadBufferSize,
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.registry = NewRegistry(HandleDiagnosticFunc(b.report))
	return b
}

// Registry returns the pin registry.
func (b *Board) Registry() *Registry {
	return b.registry
}

// Factories returns the component factories.
func (b *Board) Factories() Factories {
	return b.factories
}

// Connected indicates the transport is usable.
func (b *Board) Connected() bool {
	return !b.disconnected.Load()
}

// Done is closed when the board is disconnected.
func (b *Board) Done() <-chan struct{} {
	return b.doneCh
}

// Err returns the transport failure which disconnected the board,
// or nil if connected or closed by Close.
func (b *Board) Err() error {
	b.errLock.Lock()
	defer b.errLock.Unlock()
	return b.err
}

// Stats returns a snapshot of the counters.
func (b *Board) Stats() Stats {
	return Stats{
		Frames:          b.frames.Load(),
		Events:          b.events.Load(),
		Corrupt:         b.corrupt.Load(),
		Skipped:         b.skipped.Load(),
		Unhandled:       b.unhandled.Load(),
		Commands:        b.commands.Load(),
		ListenerErrors:  b.listenerErrors.Load(),
		ComponentErrors: b.componentErrors.Load(),
	}
}

// Close disconnects the board and closes the transport.
// Run returns nil once the pending read is unblocked.
func (b *Board) Close() error {
	b.closed.Store(true)
	b.disconnected.Store(true)
	b.shutdown()
	return b.closeErr
}

// Run is the reader loop. It returns when the board is closed (nil), ctx is
// cancelled (ctx.Err()) or the transport fails (*TransportError), including
// a failed Send.
func (b *Board) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer b.running.Store(false)
	if !b.Connected() {
		return ErrDisconnected
	}

	chunkCh := make(chan []byte)
	errCh := make(chan error, 1)
	go b.readLoop(chunkCh, errCh)
	for {
		select {
		case chunk := <-chunkCh:
			b.process(ctx, chunk)
		case err := <-errCh:
			if !b.Connected() {
				return b.Err()
			}
			if ctx.Err() != nil {
				b.Close()
				return ctx.Err()
			}
			terr := &TransportError{Op: "read", Err: err}
			b.disconnect(ctx, terr)
			return terr
		case <-ctx.Done():
			b.Close()
			return ctx.Err()
		case <-b.doneCh:
			return b.Err()
		}
	}
}

func (b *Board) readLoop(chunkCh chan []byte, errCh chan error) {
	buf := make([]byte, b.readBufSize)
	for {
		n, err := b.transport.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunkCh <- chunk:
			case <-b.doneCh:
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (b *Board) process(ctx context.Context, chunk []byte) {
	glog.V(4).Infof("board: recv % x", chunk)
	for ev, err := range b.decoder.Feed(chunk) {
		if b.closed.Load() {
			break
		}
		b.syncDecoderStats()
		if err != nil {
			b.report(ctx, corruptFrame(err))
			continue
		}
		b.events.Add(1)
		glog.V(2).Infof("board: event %v", ev)
		c := b.registry.Dispatch(ctx, ev)
		b.notifyObservers(ctx, c, ev)
	}
	b.syncDecoderStats()
}

func (b *Board) syncDecoderStats() {
	stats := b.decoder.Stats()
	b.frames.Store(stats.Frames)
	b.skipped.Store(stats.Skipped)
}

// Send encodes commands and writes them with a single Write.
// Nothing is written if any command fails to encode.
func (b *Board) Send(ctx context.Context, cmds ...*wire.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.Connected() {
		return ErrDisconnected
	}
	var buf []byte
	for _, cmd := range cmds {
		f, err := cmd.Frame()
		if err != nil {
			return err
		}
		if buf, err = f.AppendTo(buf); err != nil {
			return err
		}
	}
	if len(buf) == 0 {
		return nil
	}

	b.writeLock.Lock()
	defer b.writeLock.Unlock()
	if !b.Connected() {
		return ErrDisconnected
	}
	if _, err := b.transport.Write(buf); err != nil {
		if b.closed.Load() {
			return ErrDisconnected
		}
		terr := &TransportError{Op: "write", Err: err}
		b.disconnect(ctx, terr)
		return terr
	}
	b.commands.Add(uint64(len(cmds)))
	if glog.V(2) {
		for _, cmd := range cmds {
			glog.Infof("board: sent %v", cmd)
		}
	}
	return nil
}

// Add registers a constructed component and initializes it.
// The registration is rolled back if initialization fails.
func (b *Board) Add(ctx context.Context, c Component) error {
	token, err := b.registry.Register(c.Pins(), c.Role(), c)
	if err != nil {
		return err
	}
	if a, ok := c.(attacher); ok {
		a.attached(b.registry, token, c)
	}
	if init, ok := c.(Initializer); ok {
		if err := init.Init(ctx); err != nil {
			c.Detach()
			b.registry.Unregister(token)
			return err
		}
	}
	return nil
}

// Attach constructs a component from a binding and adds it.
func (b *Board) Attach(ctx context.Context, bd Binding) (Component, error) {
	if err := bd.Validate(); err != nil {
		return nil, err
	}
	c, err := b.factories.New(b, bd)
	if err != nil {
		return nil, err
	}
	if err := b.Add(ctx, c); err != nil {
		return nil, err
	}
	glog.V(2).Infof("board: attached %s %q on pins %v", bd.Role, bd.Name, c.Pins())
	return c, nil
}

// Do applies an action on a component and sends the resulting command.
func (b *Board) Do(ctx context.Context, c Component, action Action) error {
	cmd, err := c.Apply(action)
	if err != nil || cmd == nil {
		return err
	}
	return b.Send(ctx, cmd)
}

// Subscribe appends a listener to a component.
func (b *Board) Subscribe(c Component, l Listener) (*Subscription, error) {
	return b.registry.Subscribe(c, l)
}

// Observe adds a listener notified of every decoded event after dispatch.
// The component is nil if the event was unhandled.
func (b *Board) Observe(l Listener) *Subscription {
	b.obsLock.Lock()
	elem := b.observers.PushBack(l)
	b.obsLock.Unlock()
	return newSubscription(func() {
		b.obsLock.Lock()
		b.observers.Remove(elem)
		b.obsLock.Unlock()
	})
}

func (b *Board) notifyObservers(ctx context.Context, c Component, ev *wire.Event) {
	b.obsLock.Lock()
	if b.observers.Len() == 0 {
		b.obsLock.Unlock()
		return
	}
	observers := make([]Listener, 0, b.observers.Len())
	for elem := b.observers.Front(); elem != nil; elem = elem.Next() {
		observers = append(observers, elem.Value.(Listener))
	}
	b.obsLock.Unlock()
	for n, l := range observers {
		if err := invokeListener(ctx, l, c, ev); err != nil {
			err.Index, err.Observer = n, true
			b.report(ctx, Diagnostic{Kind: DiagListenerError, Pin: ev.Pin, Err: err})
		}
	}
}

func (b *Board) disconnect(ctx context.Context, err error) {
	if !b.disconnected.CompareAndSwap(false, true) {
		return
	}
	b.errLock.Lock()
	b.err = err
	b.errLock.Unlock()
	b.shutdown()
	b.report(ctx, Diagnostic{Kind: DiagDisconnected, Pin: NoPin, Err: err})
}

func (b *Board) shutdown() {
	b.closeOnce.Do(func() {
		close(b.doneCh)
		if err := b.transport.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			b.closeErr = err
		}
	})
}

func (b *Board) report(ctx context.Context, d Diagnostic) {
	switch d.Kind {
	case DiagCorruptFrame:
		b.corrupt.Add(1)
	case DiagUnhandledEvent:
		b.unhandled.Add(1)
	case DiagListenerError:
		b.listenerErrors.Add(1)
	case DiagComponentError:
		b.componentErrors.Add(1)
	}
	if b.diag != nil {
		b.diag.HandleDiagnostic(ctx, d)
	}
}
