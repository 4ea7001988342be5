// Package stream carries remote packets over a byte stream, e.g. TCP.
//
// A packet is framed by a 4-byte little-endian length.
package stream

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// MaxPacketSize limits a received packet.
const MaxPacketSize = 1 << 16

const headerSize = 4

// ReadWriter frames packets on a stream. Reads are buffered.
type ReadWriter struct {
	stream io.ReadWriter
	reader *bufio.Reader

	writeLock sync.Mutex
	frame     []byte
}

// New frames packets on s.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{stream: s, reader: bufio.NewReader(s)}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(p.reader, header[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxPacketSize {
		return nil, fmt.Errorf("packet size %d exceeds %d", size, MaxPacketSize)
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p.reader, pkt); err != nil {
		return nil, err
	}
	return pkt, nil
}

// WritePacket implements PacketWriter. The frame goes out in one Write.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketSize {
		return fmt.Errorf("packet size %d exceeds %d", len(pkt), MaxPacketSize)
	}
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	p.frame = append(p.frame[:0], make([]byte, headerSize)...)
	binary.LittleEndian.PutUint32(p.frame, uint32(len(pkt)))
	p.frame = append(p.frame, pkt...)
	_, err := p.stream.Write(p.frame)
	return err
}

// Close closes the stream if it's an io.Closer.
func (p *ReadWriter) Close() error {
	if closer, ok := p.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
