package bridge

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

// Result is the result of a request.
type Result struct {
	Err  error
	Code byte
	Data []byte
}

// Client sends requests over a Link and matches replies.
type Client struct {
	link    *Link
	eventCh chan *Packet
	stateCh chan SyncState

	reqsHead *Request
	reqsTail *Request
	reqsLock sync.Mutex
}

// Request is a request waiting for reply.
type Request struct {
	requestSeq PacketSeq
	resultCh   chan Result
	next       *Request
}

// RequestSeq returns the request packet seq.
func (r *Request) RequestSeq() PacketSeq {
	return r.requestSeq
}

// ResultChan returns the chan to retrieve the result.
func (r *Request) ResultChan() <-chan Result {
	return r.resultCh
}

// NewClient creates a client and takes over the handler and notifier of link.
// Both StateChan and EventChan must be drained while the client runs.
func NewClient(link *Link) *Client {
	c := &Client{
		link:    link,
		eventCh: make(chan *Packet, 1),
		stateCh: make(chan SyncState, 1),
	}
	c.link.Handler = c
	c.link.Notifier = StateChangedFunc(func(ctx context.Context, state SyncState) {
		c.stateCh <- state
	})
	return c
}

// Link gets the wrapped Link.
func (c *Client) Link() *Link {
	return c.link
}

// StateChan retrieves the state reporting chan.
func (c *Client) StateChan() <-chan SyncState {
	return c.stateCh
}

// EventChan retrieves the event reporting chan.
func (c *Client) EventChan() <-chan *Packet {
	return c.eventCh
}

// DoWith sends a request and expects the result in the provided chan.
func (c *Client) DoWith(pkt *Packet, ch chan Result) *Request {
	req := &Request{resultCh: ch}

	c.reqsLock.Lock()
	defer c.reqsLock.Unlock()
	err := c.link.Send(pkt)
	req.requestSeq = pkt.Seq
	if err != nil {
		req.resultCh <- Result{Err: err}
		return req
	}
	if c.reqsHead == nil {
		c.reqsHead = req
	} else {
		c.reqsTail.next = req
	}
	c.reqsTail = req
	return req
}

// Do sends a request and returns a Request for the result.
func (c *Client) Do(pkt *Packet) *Request {
	return c.DoWith(pkt, make(chan Result, 1))
}

// HandlePacket implements PacketHandler.
func (c *Client) HandlePacket(ctx context.Context, pkt *Packet) {
	if pkt.IsEvent() {
		c.eventCh <- pkt
		return
	}
	if len(pkt.Data) == 0 {
		glog.V(2).Infof("drop reply %02x without request seq", pkt.Code)
		return
	}
	seq := PacketSeq(pkt.Data[0])
	if !seq.IsValid() {
		glog.V(2).Infof("drop reply %02x with invalid seq %02x", pkt.Code, pkt.Data[0])
		return
	}
	c.reqsLock.Lock()
	head := c.reqsHead
	curr := c.reqsHead
	for ; curr != nil; curr = curr.next {
		if curr.requestSeq == seq {
			if c.reqsHead = curr.next; c.reqsHead == nil {
				c.reqsTail = nil
			}
			curr.next = nil
			break
		}
	}
	c.reqsLock.Unlock()
	if curr == nil {
		return
	}
	for ; head != curr; head = head.next {
		head.resultCh <- Result{Err: ErrNoReply}
	}
	if pkt.Code&1 != 0 {
		curr.resultCh <- Result{Err: &CommandError{Code: pkt.Code & 0x7e}}
	} else {
		curr.resultCh <- Result{Code: pkt.Code & 0x7e, Data: pkt.Data[1:]}
	}
}

// Run wraps Link.Run to implement Runnable.
func (c *Client) Run(ctx context.Context) error {
	return c.link.Run(ctx)
}
