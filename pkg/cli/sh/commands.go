package sh

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/components"
	"github.com/robotalks/dino.go/pkg/wire"
)

// CommandTimeout bounds each board command issued by the shell.
var CommandTimeout = time.Second

var (
	// ConnectCmd opens a board.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT-URL]",
		Func: func(c *ishell.Context) {
			var port string
			if len(c.Args) > 0 {
				port = c.Args[0]
			}
			if err := ShellFrom(c).Connect(port); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes current board.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// AttachCmd attaches a component.
	AttachCmd = ishell.Cmd{
		Name:    "attach",
		Aliases: []string{"a"},
		Help:    "ROLE PIN... [name=NAME] [PARAM=VALUE...]",
		Func: MustBeConnected(func(c *ishell.Context) {
			bd, err := parseBinding(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			ctx, cancel := commandContext()
			defer cancel()
			comp, err := ShellFrom(c).Board.Attach(ctx, bd)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(formatComponent(comp))
		}),
	}

	// DetachCmd detaches the component on a pin.
	DetachCmd = ishell.Cmd{
		Name: "detach",
		Help: "PIN",
		Func: MustBeConnected(func(c *ishell.Context) {
			comp, err := componentArg(c)
			if err != nil {
				c.Err(err)
				return
			}
			c.Err(comp.Detach())
		}),
	}

	// ListCmd lists attached components.
	ListCmd = ishell.Cmd{
		Name:    "list",
		Aliases: []string{"ls", "l"},
		Func: MustBeConnected(func(c *ishell.Context) {
			comps := ShellFrom(c).Board.Registry().Components()
			if len(comps) == 0 {
				c.Println("No components attached")
				return
			}
			for _, comp := range comps {
				c.Println(formatComponent(comp))
			}
		}),
	}

	// OnCmd turns a led on.
	OnCmd = ledCmd("on", (*components.Led).On)
	// OffCmd turns a led off.
	OffCmd = ledCmd("off", (*components.Led).Off)
	// ToggleCmd toggles a led.
	ToggleCmd = ledCmd("toggle", (*components.Led).Toggle)

	// AngleCmd moves a servo.
	AngleCmd = ishell.Cmd{
		Name: "angle",
		Help: "PIN DEGREES",
		Func: MustBeConnected(func(c *ishell.Context) {
			servo, err := componentAs[*components.Servo](c, components.RoleServo, 2)
			if err != nil {
				c.Err(err)
				return
			}
			angle, err := strconv.ParseUint(c.Args[1], 10, 16)
			if err != nil {
				c.Err(err)
				return
			}
			withTimeout(c, func(ctx context.Context) error {
				return servo.Write(ctx, uint16(angle))
			})
		}),
	}

	// ColorCmd sets the color of a RGB led.
	ColorCmd = ishell.Cmd{
		Name: "color",
		Help: "PIN #RRGGBB",
		Func: MustBeConnected(func(c *ishell.Context) {
			led, err := componentAs[*components.RgbLed](c, components.RoleRgbLed, 2)
			if err != nil {
				c.Err(err)
				return
			}
			color, err := components.ParseColor(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			withTimeout(c, func(ctx context.Context) error {
				return led.SetColor(ctx, color)
			})
		}),
	}

	// ShowCmd displays a character on a seven segment display.
	ShowCmd = ishell.Cmd{
		Name: "show",
		Help: "PIN CHAR",
		Func: MustBeConnected(func(c *ishell.Context) {
			ssd, err := componentAs[*components.SSD](c, components.RoleSSD, 2)
			if err != nil {
				c.Err(err)
				return
			}
			ch, _ := utf8.DecodeRuneInString(c.Args[1])
			withTimeout(c, func(ctx context.Context) error {
				return ssd.Display(ctx, ch)
			})
		}),
	}

	// StepCmd moves a stepper motor.
	StepCmd = ishell.Cmd{
		Name: "step",
		Help: "PIN STEPS",
		Func: MustBeConnected(func(c *ishell.Context) {
			stepper, err := componentAs[*components.Stepper](c, components.RoleStepper, 2)
			if err != nil {
				c.Err(err)
				return
			}
			steps, err := strconv.Atoi(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			withTimeout(c, func(ctx context.Context) error {
				return stepper.Step(ctx, steps)
			})
		}),
	}

	// PrintCmd prints text on a LCD.
	PrintCmd = ishell.Cmd{
		Name: "print",
		Help: "PIN TEXT...",
		Func: MustBeConnected(func(c *ishell.Context) {
			lcd, err := componentAs[*components.LCD](c, components.RoleLCD, 2)
			if err != nil {
				c.Err(err)
				return
			}
			withTimeout(c, func(ctx context.Context) error {
				return lcd.Print(ctx, strings.Join(c.Args[1:], " "))
			})
		}),
	}

	// ClearCmd clears a LCD.
	ClearCmd = ishell.Cmd{
		Name: "clear",
		Help: "PIN",
		Func: MustBeConnected(func(c *ishell.Context) {
			lcd, err := componentAs[*components.LCD](c, components.RoleLCD, 1)
			if err != nil {
				c.Err(err)
				return
			}
			withTimeout(c, lcd.Clear)
		}),
	}

	// ReadCmd requests a reading from an input component.
	ReadCmd = ishell.Cmd{
		Name: "read",
		Help: "PIN",
		Func: MustBeConnected(func(c *ishell.Context) {
			comp, err := componentArg(c)
			if err != nil {
				c.Err(err)
				return
			}
			withTimeout(c, func(ctx context.Context) error {
				return ShellFrom(c).Board.Do(ctx, comp, components.Read)
			})
		}),
	}

	// ValueCmd prints the last known value of a component.
	ValueCmd = ishell.Cmd{
		Name:    "value",
		Aliases: []string{"v"},
		Help:    "PIN",
		Func: MustBeConnected(func(c *ishell.Context) {
			comp, err := componentArg(c)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(formatValue(comp.Value()))
		}),
	}

	// WatchCmd prints events of a component.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "PIN",
		Func: MustBeConnected(func(c *ishell.Context) {
			comp, err := componentArg(c)
			if err != nil {
				c.Err(err)
				return
			}
			c.Err(ShellFrom(c).watch(comp))
		}),
	}

	// UnwatchCmd stops printing events of a component.
	UnwatchCmd = ishell.Cmd{
		Name: "unwatch",
		Help: "PIN",
		Func: MustBeConnected(func(c *ishell.Context) {
			comp, err := componentArg(c)
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).unwatch(comp)
		}),
	}

	// SendCmd sends a raw command.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "OPCODE PIN [BYTE...]",
		Func: MustBeConnected(func(c *ishell.Context) {
			cmd, err := parseCommand(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			withTimeout(c, func(ctx context.Context) error {
				return ShellFrom(c).Board.Send(ctx, cmd)
			})
		}),
	}

	// StatsCmd prints the board counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Func: MustBeConnected(func(c *ishell.Context) {
			st := ShellFrom(c).Board.Stats()
			c.Printf("frames=%d events=%d corrupt=%d skipped=%d unhandled=%d commands=%d listener-errors=%d component-errors=%d\n",
				st.Frames, st.Events, st.Corrupt, st.Skipped, st.Unhandled, st.Commands, st.ListenerErrors, st.ComponentErrors)
		}),
	}
)

func ledCmd(name string, fn func(*components.Led, context.Context) error) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: "PIN",
		Func: MustBeConnected(func(c *ishell.Context) {
			led, err := componentAs[*components.Led](c, components.RoleLed, 1)
			if err != nil {
				c.Err(err)
				return
			}
			withTimeout(c, func(ctx context.Context) error {
				return fn(led, ctx)
			})
		}),
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), CommandTimeout)
}

func withTimeout(c *ishell.Context, fn func(context.Context) error) {
	ctx, cancel := commandContext()
	defer cancel()
	if err := fn(ctx); err != nil {
		c.Err(err)
	}
}

func componentArg(c *ishell.Context) (board.Component, error) {
	if len(c.Args) < 1 {
		return nil, fmt.Errorf("pin expected")
	}
	pin, err := strconv.Atoi(c.Args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid pin %q", c.Args[0])
	}
	comp, ok := ShellFrom(c).Board.Registry().Lookup(pin)
	if !ok {
		return nil, fmt.Errorf("no component on pin %d", pin)
	}
	return comp, nil
}

func componentAs[T board.Component](c *ishell.Context, role board.Role, nargs int) (T, error) {
	var none T
	if len(c.Args) < nargs {
		return none, fmt.Errorf("%d arguments expected", nargs)
	}
	comp, err := componentArg(c)
	if err != nil {
		return none, err
	}
	typed, ok := comp.(T)
	if !ok {
		return none, fmt.Errorf("pin %s is %s, not %s", c.Args[0], comp.Role(), role)
	}
	return typed, nil
}

func parseBinding(args []string) (bd board.Binding, err error) {
	if len(args) < 2 {
		return bd, fmt.Errorf("role and pins expected")
	}
	bd.Role = board.Role(args[0])
	for _, arg := range args[1:] {
		if key, val, ok := strings.Cut(arg, "="); ok {
			if key == "name" {
				bd.Name = val
				continue
			}
			if bd.Params == nil {
				bd.Params = make(map[string]any)
			}
			bd.Params[key] = parseParam(val)
			continue
		}
		pin, err := strconv.Atoi(arg)
		if err != nil {
			return bd, fmt.Errorf("invalid pin %q", arg)
		}
		bd.Pins = append(bd.Pins, pin)
	}
	return bd, bd.Validate()
}

func parseParam(val string) any {
	if n, err := strconv.ParseInt(val, 0, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f
	}
	return val
}

func parseCommand(args []string) (*wire.Command, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("opcode and pin expected")
	}
	op, err := wire.ParseOpcode(args[0])
	if err != nil {
		return nil, err
	}
	if op.IsEvent() {
		return nil, fmt.Errorf("%v is not a command", op)
	}
	pin, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("invalid pin %q", args[1])
	}
	payload := make([]byte, 0, len(args)-2)
	for _, arg := range args[2:] {
		v, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte %q", arg)
		}
		payload = append(payload, byte(v))
	}
	return wire.NewCommand(op, pin, payload...), nil
}

func formatComponent(comp board.Component) string {
	var w strings.Builder
	fmt.Fprintf(&w, "%v %s", comp.Pins(), comp.Role())
	if named, ok := comp.(interface{ Name() string }); ok && named.Name() != "" {
		fmt.Fprintf(&w, " %q", named.Name())
	}
	fmt.Fprintf(&w, " = %s", formatValue(comp.Value()))
	return w.String()
}

func formatValue(v any) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprint(v)
}

func (s *Shell) watch(comp board.Component) error {
	pin := comp.Pins()[0]
	s.watchLock.Lock()
	defer s.watchLock.Unlock()
	if _, ok := s.watches[pin]; ok {
		return nil
	}
	sub, err := s.Board.Subscribe(comp, board.ListenerFunc(func(_ context.Context, c board.Component, ev *wire.Event) error {
		s.Shell.Printf("%v: %v -> %s\n", c.Role(), ev, formatValue(c.Value()))
		return nil
	}))
	if err != nil {
		return err
	}
	s.watches[pin] = sub
	return nil
}

func (s *Shell) unwatch(comp board.Component) {
	pin := comp.Pins()[0]
	s.watchLock.Lock()
	sub := s.watches[pin]
	delete(s.watches, pin)
	s.watchLock.Unlock()
	if sub != nil {
		sub.Close()
	}
}
