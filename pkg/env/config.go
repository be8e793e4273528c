// Package env sets up a board from flags, environment variables and a
// layout file.
package env

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/components"
	"github.com/robotalks/dino.go/pkg/transport"
)

// Config provides common options to setup a board.
type Config struct {
	// Port is the transport URL, e.g. serial:///dev/ttyACM0?baud=115200,
	// tcp://host:port or ws://host/path.
	Port string
	// Replay plays back a capture file instead of opening Port.
	Replay string
	// BoardID identifies the board on the MQTT bridge and metrics.
	BoardID string
	// AnalogBits is the ADC resolution of the board.
	AnalogBits uint

	// MQTTBrokerURL enables the MQTT bridge,
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// MetricsAddr enables the prometheus endpoint, e.g. :9100.
	MetricsAddr string
	// LayoutFile is the TOML file listing the components to attach.
	LayoutFile string
	// CaptureFile records the transport traffic.
	CaptureFile string
}

// Layout is the content of a layout file:
//
//	[[component]]
//	name = "status"
//	role = "led"
//	pins = [13]
//
//	[[component]]
//	role = "button"
//	pins = [2]
//	params = { pullup = true }
type Layout struct {
	Components []board.Binding `toml:"component"`
}

var defaultConfig = Config{
	Port:       "serial:///dev/ttyACM0",
	AnalogBits: 10,
}

func init() {
	if val := os.Getenv("DINO_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("DINO_BOARD_ID"); val != "" {
		defaultConfig.BoardID = val
	}
	if val := os.Getenv("DINO_ANALOG_BITS"); val != "" {
		if bits, err := strconv.ParseUint(val, 10, 8); err == nil {
			defaultConfig.AnalogBits = uint(bits)
		}
	}
	if val := os.Getenv("DINO_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("DINO_METRICS_ADDR"); val != "" {
		defaultConfig.MetricsAddr = val
	}
	if val := os.Getenv("DINO_LAYOUT"); val != "" {
		defaultConfig.LayoutFile = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Board transport URL.")
	flag.StringVar(&defaultConfig.Replay, "replay", defaultConfig.Replay, "Play back a capture file instead of opening the port.")
	flag.StringVar(&defaultConfig.BoardID, "id", defaultConfig.BoardID, "Board ID, defaults to the machine ID.")
	flag.UintVar(&defaultConfig.AnalogBits, "analog-bits", defaultConfig.AnalogBits, "ADC resolution of the board.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty disables the bridge.")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Listen address of /metrics, empty disables it.")
	flag.StringVar(&defaultConfig.LayoutFile, "layout", defaultConfig.LayoutFile, "TOML file of components to attach.")
	flag.StringVar(&defaultConfig.CaptureFile, "capture", defaultConfig.CaptureFile, "Record transport traffic into the file.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ID returns BoardID or the machine ID.
func (c *Config) ID() string {
	if c.BoardID != "" {
		return c.BoardID
	}
	return MachineID()
}

// OpenTransport opens the board transport, wrapped by a recorder
// if CaptureFile is set.
func (c *Config) OpenTransport() (board.Transport, error) {
	var t board.Transport
	if c.Replay != "" {
		f, err := os.Open(c.Replay)
		if err != nil {
			return nil, err
		}
		t = transport.NewReplay(f)
	} else {
		opened, err := transport.Open(c.Port)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", c.Port, err)
		}
		t = opened
	}
	if c.CaptureFile == "" {
		return t, nil
	}
	f, err := os.Create(c.CaptureFile)
	if err != nil {
		t.Close()
		return nil, err
	}
	return &recordedTransport{CaptureTransport: transport.Capture(t, f), file: f}, nil
}

// NewBoard opens the transport and creates a board with all
// component variants available.
func (c *Config) NewBoard(opts ...board.Option) (*board.Board, error) {
	t, err := c.OpenTransport()
	if err != nil {
		return nil, err
	}
	options := []board.Option{
		board.WithFactories(components.Factories()),
		board.WithAnalogBits(c.AnalogBits),
	}
	return board.New(t, append(options, opts...)...), nil
}

// MustNewBoard creates the board and fails on error.
func (c *Config) MustNewBoard(opts ...board.Option) *board.Board {
	b, err := c.NewBoard(opts...)
	if err != nil {
		log.Fatalln(err)
	}
	return b
}

// LoadLayout reads the bindings in LayoutFile. No file means no bindings.
func (c *Config) LoadLayout() ([]board.Binding, error) {
	if c.LayoutFile == "" {
		return nil, nil
	}
	var layout Layout
	if _, err := toml.DecodeFile(c.LayoutFile, &layout); err != nil {
		return nil, fmt.Errorf("layout %s: %w", c.LayoutFile, err)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("layout %s: %w", c.LayoutFile, err)
	}
	return layout.Components, nil
}

// MustLoadLayout loads the layout and fails on error.
func (c *Config) MustLoadLayout() []board.Binding {
	bindings, err := c.LoadLayout()
	if err != nil {
		log.Fatalln(err)
	}
	return bindings
}

// ParseLayout decodes a layout from TOML text.
func ParseLayout(data string) (*Layout, error) {
	var layout Layout
	if _, err := toml.Decode(data, &layout); err != nil {
		return nil, err
	}
	return &layout, layout.Validate()
}

// Validate checks all bindings.
func (l *Layout) Validate() error {
	for n, bd := range l.Components {
		if err := bd.Validate(); err != nil {
			return fmt.Errorf("component #%d: %w", n, err)
		}
	}
	return nil
}

// Attach attaches all components of the layout. Components attached
// before a failure are kept.
func Attach(ctx context.Context, b *board.Board, bindings []board.Binding) ([]board.Component, error) {
	comps := make([]board.Component, 0, len(bindings))
	for _, bd := range bindings {
		comp, err := b.Attach(ctx, bd)
		if err != nil {
			return comps, err
		}
		glog.Infof("attached %s %q on pins %v", bd.Role, bd.Name, bd.Pins)
		comps = append(comps, comp)
	}
	return comps, nil
}

type recordedTransport struct {
	*transport.CaptureTransport
	file io.Closer
}

func (t *recordedTransport) Close() error {
	err := t.CaptureTransport.Close()
	if ferr := t.file.Close(); ferr != nil && !errors.Is(ferr, os.ErrClosed) && err == nil {
		err = ferr
	}
	return err
}
