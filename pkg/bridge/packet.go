package bridge

import (
	"io"
	"time"
)

// PacketSeq is the packet sequence number, 1 to 0xef.
type PacketSeq byte

// NewPacketSeq creates a random packet sequence number.
func NewPacketSeq() PacketSeq {
	return PacketSeq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s PacketSeq) Next() PacketSeq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return PacketSeq(n)
}

// IsValid checks if it's a valid sequence number.
func (s PacketSeq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Packet is a decoded packet.
type Packet struct {
	Seq  PacketSeq
	Code byte
	Data []byte
}

// IsEvent indicates the packet is an event rather than a command or reply.
func (p *Packet) IsEvent() bool {
	return p.Code&0x80 != 0
}

func (p *Packet) header() []byte {
	head := []byte{byte(p.Seq), p.Code & 0x8f, byte(len(p.Data))}
	if head[2] < 7 {
		head[1] |= (head[2] << 4) & 0x70
		return head[:2]
	}
	head[1] |= 0x70
	return head
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() []byte {
	head := p.header()
	b := make([]byte, len(head), len(head)+len(p.Data))
	copy(b, head)
	return append(b, p.Data[:byte(len(p.Data))]...)
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (n int64, err error) {
	nw, err := w.Write(p.Bytes())
	return int64(nw), err
}
