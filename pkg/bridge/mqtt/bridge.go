package mqtt

import (
	"context"
	"io"
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/bridge/msgs"
	"github.com/robotalks/dino.go/pkg/wire"
)

// PubSub is the messaging used by the bridge. Queue implements it.
type PubSub interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
	Subscribe(topic string, handler Handler) (io.Closer, error)
}

// Board is the part of *board.Board the bridge uses.
type Board interface {
	Send(ctx context.Context, cmds ...*wire.Command) error
	Observe(board.Listener) *board.Subscription
	Registry() *board.Registry
}

// Bridge exposes a board on MQTT: events and diagnostics are published,
// commands are received. Topics are relative to the queue prefix and
// scoped by the board ID.
type Bridge struct {
	ID  string
	Now func() time.Time

	ps    PubSub
	board Board
}

// NewBridge creates a Bridge.
func NewBridge(ps PubSub, b Board, id string) *Bridge {
	return &Bridge{ID: id, Now: time.Now, ps: ps, board: b}
}

// Topic returns the full topic of a board relative path.
func (br *Bridge) Topic(sub string) string {
	return br.ID + "/" + sub
}

// EventTopic returns the topic of events on a pin.
func (br *Bridge) EventTopic(pin int) string {
	return br.Topic("event/" + strconv.Itoa(pin))
}

// Run bridges until ctx is done.
func (br *Bridge) Run(ctx context.Context) error {
	sub, err := br.ps.Subscribe(br.Topic("cmd"), func(_ string, payload []byte) {
		br.handleCommand(ctx, payload)
	})
	if err != nil {
		return err
	}
	defer sub.Close()
	obs := br.board.Observe(br)
	defer obs.Close()

	br.PublishMeta(true)
	<-ctx.Done()
	if token := br.PublishMeta(false); token != nil {
		token.WaitTimeout(time.Second)
	}
	return ctx.Err()
}

// HandleEvent implements board.Listener.
func (br *Bridge) HandleEvent(_ context.Context, c board.Component, ev *wire.Event) error {
	br.publish(br.EventTopic(ev.Pin), msgs.NewEventMsg(ev, c, br.Now()), false)
	return nil
}

// HandleDiagnostic implements board.DiagnosticHandler.
func (br *Bridge) HandleDiagnostic(_ context.Context, d board.Diagnostic) {
	br.publish(br.Topic("diag"), msgs.NewDiagnosticMsg(d, br.Now()), false)
}

// PublishMeta publishes the retained board status.
func (br *Bridge) PublishMeta(online bool) paho.Token {
	return br.publish(br.Topic("meta"), br.Meta(online), true)
}

// Meta describes the bridged board.
func (br *Bridge) Meta(online bool) *msgs.MetaMsg {
	return msgs.NewMetaMsg(br.ID, online, br.board.Registry().Components())
}

// Will returns the last will announcing the board offline.
func (br *Bridge) Will() (topic string, payload []byte, err error) {
	payload, err = msgs.Marshal(msgs.NewMetaMsg(br.ID, false, nil))
	return br.Topic("meta"), payload, err
}

func (br *Bridge) handleCommand(ctx context.Context, payload []byte) {
	var m msgs.CommandMsg
	err := msgs.Unmarshal(payload, &m)
	var cmd *wire.Command
	if err == nil {
		cmd, err = m.Command()
	}
	if err == nil {
		glog.V(2).Infof("bridge: command %v", cmd)
		err = br.board.Send(ctx, cmd)
	}
	if err != nil {
		glog.Warningf("bridge: command rejected: %v", err)
		br.publish(br.Topic("diag"), &msgs.DiagnosticMsg{
			Kind:        "command",
			Pin:         m.Pin,
			Message:     err.Error(),
			TimestampMs: br.Now().UnixMilli(),
		}, false)
	}
}

func (br *Bridge) publish(topic string, m proto.Message, retain bool) paho.Token {
	payload, err := msgs.Marshal(m)
	if err != nil {
		glog.Errorf("bridge: encode %s: %v", topic, err)
		return nil
	}
	qos := byte(0)
	if retain {
		qos = 1
	}
	return br.ps.PubWith(topic, payload, qos, retain)
}

// Dial creates a Bridge on a new Queue connected to brokerURL. The queue
// carries the offline meta as last will, and the board ID is the default
// client ID.
func Dial(brokerURL string, b Board, id string) (*Bridge, *Queue, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, nil, err
	}
	br := NewBridge(nil, b, id)
	topic, will, err := br.Will()
	if err != nil {
		return nil, nil, err
	}
	opts.SetBinaryWill(prefix+topic, will, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("dino-" + id)
	}
	q := NewQueue(opts, prefix)
	if err := q.Connect(); err != nil {
		return nil, nil, err
	}
	br.ps = q
	return br, q, nil
}
