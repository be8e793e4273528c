package components

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

type loopback struct {
	reader *io.PipeReader
	device *io.PipeWriter

	lock    sync.Mutex
	written bytes.Buffer
}

func (l *loopback) Read(p []byte) (int, error) {
	return l.reader.Read(p)
}

func (l *loopback) Write(p []byte) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.written.Write(p)
}

func (l *loopback) Close() error {
	return l.reader.Close()
}

type testEnv struct {
	t        *testing.T
	ctx      context.Context
	lb       *loopback
	board    *board.Board
	observed chan *wire.Event
	diags    chan board.Diagnostic
}

func newTestEnv(t *testing.T) *testEnv {
	r, w := io.Pipe()
	e := &testEnv{
		t:        t,
		ctx:      context.Background(),
		lb:       &loopback{reader: r, device: w},
		observed: make(chan *wire.Event, 256),
		diags:    make(chan board.Diagnostic, 16),
	}
	e.board = board.New(e.lb,
		board.WithFactories(Factories()),
		board.WithDiagnostics(board.HandleDiagnosticFunc(func(_ context.Context, d board.Diagnostic) {
			e.diags <- d
		})))
	e.board.Observe(board.ListenerFunc(func(_ context.Context, _ board.Component, ev *wire.Event) error {
		e.observed <- ev
		return nil
	}))
	go e.board.Run(e.ctx)
	t.Cleanup(func() { e.board.Close() })
	return e
}

func (e *testEnv) attach(role board.Role, params map[string]any, pins ...int) board.Component {
	c, err := e.board.Attach(e.ctx, board.Binding{Name: string(role), Role: role, Pins: pins, Params: params})
	require.NoError(e.t, err)
	return c
}

// commands decodes what the board has written since the last call.
func (e *testEnv) commands() []*wire.Command {
	e.lb.lock.Lock()
	b := bytes.Clone(e.lb.written.Bytes())
	e.lb.written.Reset()
	e.lb.lock.Unlock()

	var cmds []*wire.Command
	for f, err := range wire.NewDecoder().Frames(b) {
		require.NoError(e.t, err)
		cmds = append(cmds, wire.NewCommand(f.Opcode, int(f.Pin), f.Payload...))
	}
	return cmds
}

func (e *testEnv) feed(events ...*wire.Event) {
	for _, ev := range events {
		f, err := ev.Frame()
		require.NoError(e.t, err)
		_, err = f.WriteTo(e.lb.device)
		require.NoError(e.t, err)
	}
	for range events {
		select {
		case <-e.observed:
		case <-time.After(time.Second):
			e.t.Fatal("event not dispatched")
		}
	}
}

// ack acknowledges all written commands and returns them.
func (e *testEnv) ack() []*wire.Command {
	cmds := e.commands()
	events := make([]*wire.Event, len(cmds))
	for n, cmd := range cmds {
		events[n] = wire.AckEvent(cmd)
	}
	e.feed(events...)
	return cmds
}

func (e *testEnv) expectNoDiag() {
	select {
	case d := <-e.diags:
		e.t.Fatalf("unexpected diagnostic %v", d)
	default:
	}
}

func TestFactories(t *testing.T) {
	assert.Equal(t, []board.Role{
		RoleButton, RoleIrReceiver, RoleLCD, RoleLed, RoleRgbLed,
		RoleSensor, RoleServo, RoleSSD, RoleStepper,
	}, Factories().Roles())
}

func TestLed(t *testing.T) {
	e := newTestEnv(t)
	led := e.attach(RoleLed, nil, 13).(*Led)
	require.Equal(t, []*wire.Command{wire.SetMode(13, wire.ModeOutput)}, e.ack())
	require.Nil(t, led.Value())

	require.NoError(t, led.On(e.ctx))
	var fired []int
	for n := range 2 {
		_, err := e.board.Subscribe(led, board.ListenerFunc(func(context.Context, board.Component, *wire.Event) error {
			fired = append(fired, n)
			return nil
		}))
		require.NoError(t, err)
	}
	cmd, err := led.Apply(LedOn)
	require.NoError(t, err)
	b, err := wire.Encode(cmd)
	require.NoError(t, err)
	require.Equal(t, []byte{0xf0, 0x02, 0x0d, 0x01, 0x01, 0xef, 0xff, 0xf7}, b)

	require.Equal(t, []*wire.Command{wire.DigitalWrite(13, true)}, e.ack())
	require.True(t, led.IsOn())
	require.Equal(t, true, led.Value())
	require.Equal(t, []int{0, 1}, fired)

	require.NoError(t, led.Toggle(e.ctx))
	require.Equal(t, []*wire.Command{wire.DigitalWrite(13, false)}, e.ack())
	require.False(t, led.IsOn())

	_, err = led.Apply(ServoAngle(10))
	require.ErrorIs(t, err, board.ErrUnsupportedAction)
	e.expectNoDiag()
}

func TestButton(t *testing.T) {
	e := newTestEnv(t)
	btn := e.attach(RoleButton, map[string]any{"pullup": true}, 2).(*Button)
	require.Equal(t, []*wire.Command{
		wire.SetMode(2, wire.ModeInputPullup),
		wire.SetListener(2, wire.ListenDigital, true),
	}, e.ack())

	var changes []bool
	_, err := btn.OnChange(func(pressed bool) { changes = append(changes, pressed) })
	require.NoError(t, err)

	e.feed(wire.DigitalEvent(2, false), wire.DigitalEvent(2, true))
	require.Equal(t, []bool{true, false}, changes)
	require.False(t, btn.Pressed())

	require.NoError(t, btn.Do(e.ctx, Read))
	require.Equal(t, []*wire.Command{wire.DigitalRead(2)}, e.commands())

	e.feed(wire.AnalogEvent(2, 5))
	d := <-e.diags
	require.Equal(t, board.DiagComponentError, d.Kind)
}

func TestSensor(t *testing.T) {
	e := newTestEnv(t)
	s := e.attach(RoleSensor, nil, 14).(*Sensor)
	require.Equal(t, []*wire.Command{
		wire.SetMode(14, wire.ModeInput),
		wire.SetListener(14, wire.ListenAnalog, true),
	}, e.ack())
	_, ok := s.Reading()
	require.False(t, ok)

	e.feed(wire.AnalogEvent(14, 812))
	v, ok := s.Reading()
	require.True(t, ok)
	require.EqualValues(t, 812, v)

	require.NoError(t, s.Read(e.ctx))
	require.Equal(t, []*wire.Command{wire.AnalogRead(14)}, e.commands())

	polled := e.attach(RoleSensor, map[string]any{"listen": false}, 15)
	require.Equal(t, []*wire.Command{wire.SetMode(15, wire.ModeInput)}, e.commands())
	require.NoError(t, polled.Detach())
	e.expectNoDiag()
}

func TestRgbLed(t *testing.T) {
	e := newTestEnv(t)
	rgb := e.attach(RoleRgbLed, map[string]any{"anode": true}, 9, 10, 11).(*RgbLed)
	require.Len(t, e.ack(), 3)

	require.NoError(t, rgb.SetColor(e.ctx, Color{R: 255, G: 128, B: 0}))
	require.Equal(t, []*wire.Command{
		wire.AnalogWrite(9, 0),
		wire.AnalogWrite(10, 127),
		wire.AnalogWrite(11, 255),
	}, e.ack())
	require.Equal(t, Color{R: 255, G: 128, B: 0}, rgb.Color())
	require.Equal(t, "#ff8000", rgb.Color().String())
	parsed, err := ParseColor("#ff8000")
	require.NoError(t, err)
	require.Equal(t, rgb.Color(), parsed)
	_, err = ParseColor("ff80")
	require.Error(t, err)
	_, err = ParseColor("#gg8000")
	require.Error(t, err)

	_, err = rgb.Apply(RgbChannel{Channel: 3})
	require.ErrorIs(t, err, ErrOutOfRange)
	e.expectNoDiag()
}

func TestServo(t *testing.T) {
	e := newTestEnv(t)
	servo := e.attach(RoleServo, map[string]any{"max": int64(170)}, 6).(*Servo)
	require.Equal(t, []*wire.Command{
		wire.SetMode(6, wire.ModeServo),
		wire.ServoToggle(6, true),
	}, e.ack())

	require.ErrorIs(t, servo.Write(e.ctx, 175), ErrOutOfRange)
	require.Empty(t, e.commands())
	require.NoError(t, servo.Write(e.ctx, 90))
	require.Equal(t, []*wire.Command{wire.ServoWrite(6, 90)}, e.ack())
	angle, ok := servo.Angle()
	require.True(t, ok)
	require.EqualValues(t, 90, angle)

	require.NoError(t, servo.Release(e.ctx))
	require.Equal(t, []*wire.Command{wire.ServoToggle(6, false)}, e.ack())

	_, err := e.board.Attach(e.ctx, board.Binding{Name: "bad", Role: RoleServo, Pins: []int{7},
		Params: map[string]any{"min": int64(100), "max": int64(50)}})
	require.ErrorIs(t, err, board.ErrBadBinding)
	e.expectNoDiag()
}

func TestSSD(t *testing.T) {
	e := newTestEnv(t)
	ssd := e.attach(RoleSSD, nil, 20, 21, 22, 23, 24, 25, 26, 27).(*SSD)
	require.Len(t, e.ack(), 8)

	require.NoError(t, ssd.Display(e.ctx, '1'))
	cmds := e.ack()
	require.Len(t, cmds, 7)
	require.Equal(t, wire.DigitalWrite(20, false), cmds[0])
	require.Equal(t, wire.DigitalWrite(21, true), cmds[1])
	require.Equal(t, wire.DigitalWrite(22, true), cmds[2])
	require.EqualValues(t, 0x06, ssd.Mask())

	require.NoError(t, ssd.Do(e.ctx, Segment{Index: 7, On: true}))
	e.ack()
	require.EqualValues(t, 0x86, ssd.Mask())

	require.NoError(t, ssd.Display(e.ctx, 'E'))
	e.ack()
	require.EqualValues(t, 0x79|0x80, ssd.Mask())

	require.ErrorIs(t, ssd.Display(e.ctx, '?'), ErrOutOfRange)
	_, err := e.board.Attach(e.ctx, board.Binding{Name: "short", Role: RoleSSD, Pins: []int{1, 2, 3}})
	require.ErrorIs(t, err, board.ErrBadBinding)
	e.expectNoDiag()
}

func TestStepper(t *testing.T) {
	e := newTestEnv(t)
	st := e.attach(RoleStepper, nil, 3, 4).(*Stepper)
	require.Len(t, e.ack(), 2)
	require.Equal(t, 0, st.Position())

	require.NoError(t, st.Step(e.ctx, 3))
	cmds := e.ack()
	require.Len(t, cmds, 7)
	require.Equal(t, wire.DigitalWrite(4, true), cmds[0])
	require.Equal(t, 3, st.Position())

	require.NoError(t, st.Step(e.ctx, -5))
	e.ack()
	require.Equal(t, -2, st.Position())
	e.expectNoDiag()
}

func TestIrReceiver(t *testing.T) {
	e := newTestEnv(t)
	ir := e.attach(RoleIrReceiver, nil, 11).(*IrReceiver)
	require.Equal(t, []*wire.Command{
		wire.SetMode(11, wire.ModeInput),
		wire.SetListener(11, wire.ListenIR, true),
	}, e.ack())

	e.feed(wire.IRCodeEvent(11, 0xef, 0x10, 0xdf, 0x20))
	code, ok := ir.Last()
	require.True(t, ok)
	require.Equal(t, uint32(0x20df10ef), code.Code)
	require.Equal(t, "0x20df10ef", code.String())

	_, err := ir.Apply(Read)
	require.ErrorIs(t, err, board.ErrUnsupportedAction)
	e.expectNoDiag()
}

func TestLCD(t *testing.T) {
	e := newTestEnv(t)
	lcd := e.attach(RoleLCD, map[string]any{"cols": int64(8)}, 30, 31, 32, 33, 34, 35).(*LCD)
	require.Equal(t, []*wire.Command{
		wire.LCD(30, wire.LCDBegin, 8, 2, 30, 31, 32, 33, 34, 35),
	}, e.ack())
	require.Equal(t, []string{"        ", "        "}, lcd.Lines())

	require.NoError(t, lcd.Print(e.ctx, "hello world"))
	e.ack()
	require.NoError(t, lcd.SetCursor(e.ctx, 2, 1))
	require.NoError(t, lcd.Print(e.ctx, "go"))
	e.ack()
	require.Equal(t, []string{"hello wo", "  go    "}, lcd.Lines())

	require.ErrorIs(t, lcd.SetCursor(e.ctx, 8, 0), ErrOutOfRange)
	require.NoError(t, lcd.Print(e.ctx, string(bytes.Repeat([]byte("x"), 40))))
	require.Len(t, e.commands(), 2)

	require.NoError(t, lcd.Clear(e.ctx))
	e.ack()
	require.Equal(t, []string{"        ", "        "}, lcd.Lines())
	e.expectNoDiag()
}
