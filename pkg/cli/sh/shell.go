// Package sh provides an interactive shell to drive a board.
package sh

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/env"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Board  *board.Board

	cancel  context.CancelFunc
	runDone chan struct{}

	watchLock sync.Mutex
	watches   map[int]*board.Subscription
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly bool

	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&AttachCmd,
		&DetachCmd,
		&ListCmd,
		&OnCmd,
		&OffCmd,
		&ToggleCmd,
		&AngleCmd,
		&ColorCmd,
		&ShowCmd,
		&StepCmd,
		&PrintCmd,
		&ClearCmd,
		&ReadCmd,
		&ValueCmd,
		&WatchCmd,
		&UnwatchCmd,
		&SendCmd,
		&StatsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Config:      conf,
		watches:     make(map[int]*board.Subscription),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Board == nil {
			c.Err(board.ErrDisconnected)
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the board on port, or the configured port if empty,
// and attaches the configured layout.
func (s *Shell) Connect(port string) error {
	conf := *s.Config
	if port != "" {
		conf.Port, conf.Replay = port, ""
	}
	bindings, err := conf.LoadLayout()
	if err != nil {
		return err
	}
	b, err := conf.NewBoard(board.WithDiagnostics(board.MultiDiagnostics(
		board.LogDiagnostics,
		board.HandleDiagnosticFunc(s.printDiagnostic),
	)))
	if err != nil {
		return err
	}
	name := conf.Port
	if conf.Replay != "" {
		name = conf.Replay
	}
	s.Use(b, name)
	if _, err := env.Attach(context.Background(), b, bindings); err != nil {
		return err
	}
	return nil
}

// Use runs an opened board in background and makes it current.
func (s *Shell) Use(b *board.Board, name string) {
	s.Disconnect()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.Board, s.cancel, s.runDone = b, cancel, done
	go func() {
		defer close(done)
		if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.Shell.Printf("board stopped: %v\n", err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
}

// Disconnect closes current board.
func (s *Shell) Disconnect() {
	if s.Board == nil {
		return
	}
	s.cancel()
	<-s.runDone
	s.Board.Close()
	s.Board = nil
	s.watchLock.Lock()
	s.watches = make(map[int]*board.Subscription)
	s.watchLock.Unlock()
	s.Shell.SetPrompt(unconnectedPrompt)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(""); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Port, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func (s *Shell) printDiagnostic(_ context.Context, d board.Diagnostic) {
	if d.Kind == board.DiagUnhandledEvent {
		return
	}
	s.Shell.Printf("! %v\n", d)
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
