package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	"github.com/robotalks/sdep.go/pkg/bridge"
	fx "github.com/robotalks/sdep.go/pkg/framework"
	"github.com/robotalks/sdep.go/pkg/sdep"
)

// Topics relative to <prefix><id>/.
const (
	TopicMeta     = "meta"
	TopicExchange = "exchange"
	TopicCommand  = "cmd"
)

// SourceMQTT is the source of command lines received on the cmd topic.
const SourceMQTT = "mqtt"

// Meta is the retained description of a bridge.
type Meta struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Mirror publishes exchanges and turns remote command lines into
// bridge.RemoteCommand messages on the loop.
type Mirror struct {
	Queue *Queue
	Meta  Meta

	metaJSON []byte
}

// NewMirror creates a Mirror connected to brokerURL.
func NewMirror(brokerURL string, meta Meta) (*Mirror, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+meta.ID+"/"+TopicMeta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("sdep:" + meta.ID)
	}
	m := &Mirror{
		Queue:    NewQueue(opts, topicPrefix),
		Meta:     meta,
		metaJSON: metaJSON,
	}
	m.Queue.OnConnect = func(q *Queue) {
		q.PubWith(m.topic(TopicMeta), m.metaJSON, 1, true)
	}
	return m, nil
}

// AddToLoop implements LoopAdder.
func (m *Mirror) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("mqtt", m))
}

// Run implements Runnable.
func (m *Mirror) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	sub := m.Queue.Sub(m.topic(TopicCommand), func(_ string, payload []byte) {
		if len(payload) == 0 {
			return
		}
		loopCtl.PostMessage(&bridge.RemoteCommand{Source: SourceMQTT, Text: string(payload)})
		loopCtl.TriggerNext()
	})
	defer sub.Close()
	token := m.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	m.Queue.PubWith(m.topic(TopicMeta), nil, 1, true).Wait()
	m.Queue.Close()
	return ctx.Err()
}

// ExchangeDone implements bridge.ExchangeObserver.
func (m *Mirror) ExchangeDone(source, cmd string, reply *sdep.Message, err error) {
	data, encErr := NewExchange(source, cmd, reply, err).Encode()
	if encErr != nil {
		glog.Errorf("encode exchange: %v", encErr)
		return
	}
	if !m.Queue.Client.IsConnected() {
		glog.V(1).Info("mqtt not connected, exchange not mirrored")
		return
	}
	m.Queue.Pub(m.topic(TopicExchange), data)
}

func (m *Mirror) topic(name string) string {
	return m.Meta.ID + "/" + name
}
