package mqtt

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/sixstep/pkg/remote"
)

const packetBuffer = 16

// ReadWriter exchanges packets by subscribing one topic and publishing to
// another. Packets arriving while the buffer is full are dropped.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packets chan []byte
	done    chan struct{}
}

// NewPacketReadWriter creates a ReadWriter on q. Topics are set by
// ForController or ForConnector.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:   q,
		packets: make(chan []byte, packetBuffer),
		done:    make(chan struct{}),
	}
}

// ForConnector receives on msg and sends on cmd of ref.
func (p *ReadWriter) ForConnector(ref remote.ControllerRef) *ReadWriter {
	p.SubTopic, p.PubTopic = ControllerTopic(ref, TopicMsg), ControllerTopic(ref, TopicCmd)
	return p
}

// ForController receives on cmd and sends on msg of ref.
func (p *ReadWriter) ForController(ref remote.ControllerRef) *ReadWriter {
	p.SubTopic, p.PubTopic = ControllerTopic(ref, TopicCmd), ControllerTopic(ref, TopicMsg)
	return p
}

// ReadPacket implements PacketReader. It returns io.EOF after Run returns.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packets:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable. It keeps SubTopic subscribed until ctx is done.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.received)
	defer close(p.done)
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) received(topic string, payload []byte) {
	select {
	case p.packets <- payload:
	default:
		glog.Warningf("%s: drop packet (%d bytes), reader is behind", topic, len(payload))
	}
}
