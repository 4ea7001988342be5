// Package websocket carries remote packets as binary websocket messages.
package websocket

import "golang.org/x/net/websocket"

// MaxPacketSize limits a received message.
const MaxPacketSize = 1 << 16

// ReadWriter sends every packet as one binary message.
type ReadWriter struct {
	conn *websocket.Conn
}

// New wraps conn, switching it to binary frames.
func New(conn *websocket.Conn) *ReadWriter {
	conn.PayloadType = websocket.BinaryFrame
	conn.MaxPayloadBytes = MaxPacketSize
	return &ReadWriter{conn: conn}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var pkt []byte
	if err := websocket.Message.Receive(p.conn, &pkt); err != nil {
		return nil, err
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.conn, pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.conn.Close()
}
