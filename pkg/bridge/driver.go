package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sixstep/pkg/commutation"
)

// Request codes. A successful reply carries the same code.
const (
	CodeSetMode   byte = 0x02
	CodeEnable    byte = 0x04
	CodeDisable   byte = 0x06
	CodeCommutate byte = 0x08
)

// Event codes.
const (
	CodeFault byte = 0x82
)

// Error codes in a failed reply, which has bit0 set.
const (
	ErrCodeInvalid  byte = 0x02
	ErrCodeRejected byte = 0x04
)

// maxFaultMessage is the longest fault message fitting in one packet.
const maxFaultMessage = 0x7f

// Target is the timer driven through the bridge.
type Target interface {
	commutation.Driver
	Commutate() error
}

// EncodeCommand encodes a channel command into a request packet.
func EncodeCommand(cmd commutation.Command) *Packet {
	switch cmd.Op {
	case commutation.OpSetMode:
		return &Packet{Code: CodeSetMode, Data: []byte{byte(cmd.Channel), byte(cmd.Mode)}}
	case commutation.OpEnable:
		return &Packet{Code: CodeEnable, Data: []byte{byte(cmd.Channel), byte(cmd.Output)}}
	default:
		return &Packet{Code: CodeDisable, Data: []byte{byte(cmd.Channel), byte(cmd.Output)}}
	}
}

// DecodeCommand decodes a request packet into a channel command.
func DecodeCommand(pkt *Packet) (cmd commutation.Command, err error) {
	if len(pkt.Data) != 2 {
		return cmd, fmt.Errorf("code %02x: invalid data length %d", pkt.Code, len(pkt.Data))
	}
	cmd.Channel = commutation.Channel(pkt.Data[0])
	if !cmd.Channel.IsValid() {
		return cmd, fmt.Errorf("code %02x: invalid channel %d", pkt.Code, pkt.Data[0])
	}
	switch pkt.Code {
	case CodeSetMode:
		cmd.Op, cmd.Mode = commutation.OpSetMode, commutation.Mode(pkt.Data[1])
		if cmd.Mode != commutation.ModeTiming && cmd.Mode != commutation.ModePWM {
			return cmd, fmt.Errorf("invalid mode %d", pkt.Data[1])
		}
		return
	case CodeEnable:
		cmd.Op = commutation.OpEnable
	case CodeDisable:
		cmd.Op = commutation.OpDisable
	default:
		return cmd, fmt.Errorf("unknown code %02x", pkt.Code)
	}
	cmd.Output = commutation.Output(pkt.Data[1])
	if cmd.Output != commutation.OutputMain && cmd.Output != commutation.OutputComplementary {
		return cmd, fmt.Errorf("invalid output %d", pkt.Data[1])
	}
	return
}

// RemoteFault is a fault reported by the board.
type RemoteFault struct {
	Message string
}

// Error implements error.
func (e *RemoteFault) Error() string {
	return "board fault: " + e.Message
}

// Driver issues channel commands to a board and waits for each reply.
type Driver struct {
	Timeout time.Duration
	// FaultHandler receives faults reported by the board.
	FaultHandler commutation.FaultHandler

	client *Client

	readyLock sync.Mutex
	ready     bool
	readyCh   chan struct{}
}

// DefaultCommandTimeout is the default time to wait for a reply.
const DefaultCommandTimeout = 100 * time.Millisecond

// NewDriver creates a Driver over a Link.
func NewDriver(link *Link) *Driver {
	return &Driver{
		Timeout: DefaultCommandTimeout,
		client:  NewClient(link),
		readyCh: make(chan struct{}),
	}
}

// SetChannelMode implements commutation.Driver.
func (d *Driver) SetChannelMode(ch commutation.Channel, mode commutation.Mode) error {
	return d.exec(EncodeCommand(commutation.SetMode(ch, mode)))
}

// EnableChannel implements commutation.Driver.
func (d *Driver) EnableChannel(ch commutation.Channel, out commutation.Output) error {
	return d.exec(EncodeCommand(commutation.Enable(ch, out)))
}

// DisableChannel implements commutation.Driver.
func (d *Driver) DisableChannel(ch commutation.Channel, out commutation.Output) error {
	return d.exec(EncodeCommand(commutation.Disable(ch, out)))
}

// Commutate requests the board to apply the staged channel configuration.
func (d *Driver) Commutate() error {
	return d.exec(&Packet{Code: CodeCommutate})
}

func (d *Driver) exec(pkt *Packet) error {
	req := d.client.Do(pkt)
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-req.ResultChan():
		return r.Err
	case <-timer.C:
		return ErrTimeout
	}
}

// Ready indicates the link to the board is synchronized.
func (d *Driver) Ready() bool {
	d.readyLock.Lock()
	defer d.readyLock.Unlock()
	return d.ready
}

// WaitReady blocks until the link is synchronized or ctx is done.
func (d *Driver) WaitReady(ctx context.Context) error {
	for {
		d.readyLock.Lock()
		ready, ch := d.ready, d.readyCh
		d.readyLock.Unlock()
		if ready {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Driver) setReady(ready bool) {
	d.readyLock.Lock()
	defer d.readyLock.Unlock()
	if ready == d.ready {
		return
	}
	d.ready = ready
	if ready {
		close(d.readyCh)
	} else {
		d.readyCh = make(chan struct{})
	}
}

// Run implements Runnable.
func (d *Driver) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.client.Run(ctx)
	}()
	for {
		select {
		case err := <-errCh:
			d.setReady(false)
			return err
		case state := <-d.client.StateChan():
			d.setReady(state.IsReady())
		case pkt := <-d.client.EventChan():
			d.handleEvent(pkt)
		}
	}
}

func (d *Driver) handleEvent(pkt *Packet) {
	if pkt.Code != CodeFault {
		glog.V(2).Infof("ignore event %02x", pkt.Code)
		return
	}
	err := &RemoteFault{Message: string(pkt.Data)}
	glog.Errorf("%v", err)
	if h := d.FaultHandler; h != nil {
		h.Fault(err)
	}
}

// Responder executes requests from a Driver on a Target.
type Responder struct {
	link   *Link
	target Target
}

// NewResponder creates a Responder and installs it as the handler of link.
func NewResponder(link *Link, target Target) *Responder {
	r := &Responder{link: link, target: target}
	link.Handler = r
	return r
}

// HandlePacket implements PacketHandler.
func (r *Responder) HandlePacket(ctx context.Context, pkt *Packet) {
	if pkt.IsEvent() {
		return
	}
	reply := &Packet{Code: r.exec(pkt), Data: []byte{byte(pkt.Seq)}}
	if err := r.link.Send(reply); err != nil {
		glog.Errorf("reply %d: %v", pkt.Seq, err)
	}
}

func (r *Responder) exec(pkt *Packet) byte {
	if pkt.Code == CodeCommutate {
		if err := r.target.Commutate(); err != nil {
			glog.Warningf("commutate: %v", err)
			return ErrCodeRejected | 1
		}
		return CodeCommutate
	}
	cmd, err := DecodeCommand(pkt)
	if err != nil {
		glog.Warningf("%v", err)
		return ErrCodeInvalid | 1
	}
	if err = commutation.Execute(r.target, cmd); err != nil {
		glog.Warningf("%s: %v", cmd, err)
		return ErrCodeRejected | 1
	}
	return pkt.Code
}

// Ready indicates the link to the host is synchronized.
func (r *Responder) Ready() bool {
	return r.link.State().IsReady()
}

// Fault implements commutation.FaultHandler by reporting err to the Driver.
func (r *Responder) Fault(err error) {
	msg := err.Error()
	if len(msg) > maxFaultMessage {
		msg = msg[:maxFaultMessage]
	}
	if err := r.link.Send(&Packet{Code: CodeFault, Data: []byte(msg)}); err != nil {
		glog.Errorf("report fault: %v", err)
	}
}

// Run implements Runnable.
func (r *Responder) Run(ctx context.Context) error {
	return r.link.Run(ctx)
}
