package mqtt

import (
	"context"
	"encoding/json"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/remote"
)

// Registrar publishes a controller on MQTT. While connected the meta is
// retained on <type>/<id>/meta. The will clears it when the connection is
// lost and Run clears it on exit.
type Registrar struct {
	Queue *Queue
	Info  remote.ControllerInfo

	meta []byte
	pipe remote.PipeRegistrar
}

// NewRegistrar creates a Registrar connecting brokerURL.
func NewRegistrar(brokerURL string, info remote.ControllerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := ControllerTopic(info.Ref, TopicMeta)
	opts.SetBinaryWill(prefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("sixstep:" + info.Ref.Name())
	}
	r := &Registrar{Queue: NewQueue(opts, prefix), Info: info, meta: meta}
	r.Queue.OnConnect = func(q *Queue) {
		q.PubWith(metaTopic, r.meta, 1, true)
	}
	r.pipe.Init(NewPacketReadWriter(r.Queue).ForController(info.Ref))
	return r, nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
	loop.AddRunnable(r)
}

// Run implements Runnable. The client reconnects by itself, so Run only
// starts it and unregisters when ctx is done.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(ControllerTopic(r.Info.Ref, TopicMeta), nil, 1, true).Wait()
	return r.Queue.Close()
}
