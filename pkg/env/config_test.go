package env

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/components"
	"github.com/robotalks/dino.go/pkg/transport"
	"github.com/robotalks/dino.go/pkg/wire"
)

const testLayout = `
[[component]]
name = "status"
role = "led"
pins = [13]

[[component]]
name = "start"
role = "button"
pins = [2]
params = { pullup = true }

[[component]]
role = "servo"
pins = [9]
params = { min = 10, max = 170 }
`

func TestParseLayout(t *testing.T) {
	layout, err := ParseLayout(testLayout)
	require.NoError(t, err)
	require.Len(t, layout.Components, 3)
	assert.Equal(t, board.Binding{Name: "status", Role: components.RoleLed, Pins: []int{13}}, layout.Components[0])
	assert.Equal(t, components.RoleButton, layout.Components[1].Role)
	pullup, err := layout.Components[1].ParamBool("pullup", false)
	require.NoError(t, err)
	assert.True(t, pullup)
	max, err := layout.Components[2].ParamInt("max", 180)
	require.NoError(t, err)
	assert.Equal(t, 170, max)
}

func TestParseLayoutErrors(t *testing.T) {
	_, err := ParseLayout("[[component]]\nrole = \"led\"\n")
	require.ErrorIs(t, err, board.ErrBadBinding)

	_, err = ParseLayout("[[component]]\npins = [1]\n")
	require.ErrorIs(t, err, board.ErrBadBinding)

	_, err = ParseLayout("[[component]\n")
	require.Error(t, err)
}

func TestLoadLayout(t *testing.T) {
	conf := NewConfig()
	bindings, err := conf.LoadLayout()
	require.NoError(t, err)
	assert.Empty(t, bindings)

	conf.LayoutFile = filepath.Join(t.TempDir(), "board.toml")
	require.NoError(t, os.WriteFile(conf.LayoutFile, []byte(testLayout), 0644))
	bindings, err = conf.LoadLayout()
	require.NoError(t, err)
	assert.Len(t, bindings, 3)

	conf.LayoutFile = filepath.Join(t.TempDir(), "missing.toml")
	_, err = conf.LoadLayout()
	require.Error(t, err)
}

func TestConfigID(t *testing.T) {
	conf := NewConfig()
	conf.BoardID = "bench"
	assert.Equal(t, "bench", conf.ID())
	conf.BoardID = ""
	assert.NotEmpty(t, conf.ID())
}

func writeCapture(t *testing.T, path string, events ...*wire.Event) {
	var buf bytes.Buffer
	for _, ev := range events {
		f, err := ev.Frame()
		require.NoError(t, err)
		data, err := f.Bytes()
		require.NoError(t, err)
		require.NoError(t, transport.WriteRecord(&buf, transport.Record{Dir: transport.DirRead, Data: data}))
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestReplayLayout(t *testing.T) {
	dir := t.TempDir()
	conf := NewConfig()
	conf.Replay = filepath.Join(dir, "in.cap")
	conf.CaptureFile = filepath.Join(dir, "out.cap")
	writeCapture(t, conf.Replay, wire.DigitalEvent(2, false))

	b, err := conf.NewBoard(board.WithDiagnostics(board.HandleDiagnosticFunc(func(context.Context, board.Diagnostic) {})))
	require.NoError(t, err)
	layout, err := ParseLayout(testLayout)
	require.NoError(t, err)
	comps, err := Attach(context.Background(), b, layout.Components)
	require.NoError(t, err)
	require.Len(t, comps, 3)

	err = b.Run(context.Background())
	require.True(t, errors.Is(err, io.EOF), "%v", err)
	assert.True(t, comps[1].(*components.Button).Pressed())
	require.NoError(t, b.Close())

	f, err := os.Open(conf.CaptureFile)
	require.NoError(t, err)
	defer f.Close()
	var reads, writes int
	for {
		rec, err := transport.ReadRecord(f)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if rec.Dir == transport.DirRead {
			reads++
		} else {
			writes++
		}
	}
	assert.Equal(t, 1, reads)
	assert.Positive(t, writes)
}

func TestAttachStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	conf := NewConfig()
	conf.Replay = filepath.Join(dir, "in.cap")
	writeCapture(t, conf.Replay)
	b, err := conf.NewBoard(board.WithDiagnostics(board.HandleDiagnosticFunc(func(context.Context, board.Diagnostic) {})))
	require.NoError(t, err)
	defer b.Close()

	comps, err := Attach(context.Background(), b, []board.Binding{
		{Role: components.RoleLed, Pins: []int{13}},
		{Role: components.RoleLed, Pins: []int{13}},
	})
	require.ErrorIs(t, err, board.ErrPinConflict)
	assert.Len(t, comps, 1)
}

func TestEnvRunnables(t *testing.T) {
	dir := t.TempDir()
	conf := NewConfig()
	conf.BoardID = "bench"
	conf.Replay = filepath.Join(dir, "in.cap")
	conf.MetricsAddr = "127.0.0.1:0"
	conf.LayoutFile = filepath.Join(dir, "board.toml")
	require.NoError(t, os.WriteFile(conf.LayoutFile, []byte(testLayout), 0644))
	writeCapture(t, conf.Replay, wire.DigitalEvent(2, false), wire.DigitalEvent(40, true))

	e, err := conf.NewEnv(context.Background())
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, "bench", e.ID)
	assert.Len(t, e.Components, 3)
	assert.Nil(t, e.Bridge)
	require.Len(t, e.Runnables(), 2)

	err = e.Board.Run(context.Background())
	require.ErrorIs(t, err, io.EOF)
	mfs, err := e.Gatherer.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["dino_board_events_total"])
	assert.Equal(t, 1.0, values["dino_board_unhandled_events_total"])
	assert.Equal(t, 2.0, values["dino_board_diagnostics_total"])
}
