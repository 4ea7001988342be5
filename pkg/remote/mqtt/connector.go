package mqtt

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/sixstep/pkg/remote"
)

// DefaultDiscoverTimeout is how long Discover collects retained metas.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector finds controllers by their retained meta topics.
type Connector struct {
	DiscoverTimeout time.Duration

	options *paho.ClientOptions
	prefix  string
}

// NewConnector creates a Connector for brokerURL.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{DiscoverTimeout: DefaultDiscoverTimeout, options: opts, prefix: prefix}, nil
}

func (c *Connector) connect(ctx context.Context) (*Queue, error) {
	q := NewQueue(c.options, c.prefix)
	if err := Wait(ctx, q.Connect()); err != nil {
		return nil, err
	}
	return q, nil
}

// metaCollector keeps the latest meta per controller. An empty payload
// means the controller is gone.
type metaCollector struct {
	lock  sync.Mutex
	infos map[remote.ControllerRef]remote.ControllerMeta
}

func (m *metaCollector) handle(topic string, payload []byte) {
	ref, ok := ParseMetaTopic(topic)
	if !ok {
		return
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if len(payload) == 0 {
		delete(m.infos, ref)
		return
	}
	var meta remote.ControllerMeta
	if err := json.Unmarshal(payload, &meta); err != nil {
		glog.V(2).Infof("%s: invalid meta: %v", topic, err)
	}
	m.infos[ref] = meta
}

func (m *metaCollector) result() []remote.ControllerInfo {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := make([]remote.ControllerInfo, 0, len(m.infos))
	for ref, meta := range m.infos {
		res = append(res, remote.ControllerInfo{Ref: ref, Meta: meta})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Ref.Name() < res[j].Ref.Name() })
	return res
}

// Discover implements Connector. It collects metas for DiscoverTimeout.
func (c *Connector) Discover(ctx context.Context) ([]remote.ControllerInfo, error) {
	q, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	collector := &metaCollector{infos: make(map[remote.ControllerRef]remote.ControllerMeta)}
	q.Sub(MetaFilter, collector.handle)

	dur := c.DiscoverTimeout
	if dur <= 0 {
		dur = DefaultDiscoverTimeout
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-timer.C:
		return collector.result(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Connect implements Connector.
func (c *Connector) Connect(ctx context.Context, ref remote.ControllerRef) (remote.ControllerConn, error) {
	q, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	conn := &ControllerConn{Queue: q}
	conn.Init(NewPacketReadWriter(q).ForConnector(ref))
	return conn, nil
}

// ControllerConn is a PipeConn over MQTT.
type ControllerConn struct {
	remote.PipeConn
	Queue *Queue
}

// Close disconnects from the broker.
func (c *ControllerConn) Close() error {
	return c.Queue.Close()
}
