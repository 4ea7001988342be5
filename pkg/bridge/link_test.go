package bridge

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pollStream mimics a serial port with read timeout.
type pollStream struct {
	readCh  chan byte
	writeCh chan byte
}

func (s *pollStream) Read(p []byte) (int, error) {
	select {
	case b := <-s.readCh:
		p[0] = b
		return 1, nil
	case <-time.After(time.Millisecond):
		return 0, io.EOF
	}
}

func (s *pollStream) Write(p []byte) (int, error) {
	for _, b := range p {
		s.writeCh <- b
	}
	return len(p), nil
}

func expectWritten(t *testing.T, ch <-chan byte, bs ...byte) {
	for n, b := range bs {
		select {
		case got := <-ch:
			require.Equalf(t, b, got, "byte[%d] mismatch", n)
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("byte[%d] timeout", n)
		}
	}
}

func TestLinkPolling(t *testing.T) {
	stream := &pollStream{readCh: make(chan byte, 16), writeCh: make(chan byte, 1024)}
	link := NewLink(stream)
	link.seq = PacketSeq(1)
	link.ReadTimeout = true
	link.Timeout = 5 * time.Millisecond
	pktCh := make(chan *Packet, 1)
	link.Handler = HandlePacketFunc(func(ctx context.Context, pkt *Packet) {
		pktCh <- pkt
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- link.Run(ctx) }()

	// REQ is repeated until the peer answers.
	expectWritten(t, stream.writeCh, syncREQ, 1, syncREQ, 1)
	require.Equal(t, ErrNotReady, link.Send(&Packet{Code: CodeCommutate}))

	for _, b := range []byte{syncACK, 7, 7, 0x82} {
		stream.readCh <- b
	}
	select {
	case pkt := <-pktCh:
		require.Equal(t, &Packet{Seq: 7, Code: CodeFault}, pkt)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("packet timeout")
	}
	require.True(t, link.State().IsReady())
	for len(stream.writeCh) > 0 {
		<-stream.writeCh
	}
	require.NoError(t, link.Send(&Packet{Code: CodeSetMode, Data: []byte{1, 1}}))
	expectWritten(t, stream.writeCh, 1, 0x22, 1, 1)

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}
