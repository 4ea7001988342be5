package remote_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/msgs"
	"github.com/robotalks/sixstep/pkg/remote"
	"github.com/robotalks/sixstep/pkg/remote/stream"
)

type remoteTestEnv struct {
	server   *remote.Server
	conn     *remote.PipeConn
	eventsCh chan fx.Message
	cancel   context.CancelFunc
}

func newRemoteTestEnv(t *testing.T) *remoteTestEnv {
	env := &remoteTestEnv{
		server:   remote.NewServer(),
		eventsCh: make(chan fx.Message, 4),
	}
	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel

	ctlLoop := fx.NewLoop().WithInterval(10 * time.Millisecond)
	ctlLoop.Add(env.server, &remote.UnsupportedCommands{})
	ctlLoop.AddController(fx.PrLvCommand, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			cmd, ok := mctx.CurrentMessage().(*remote.CommandMsg)
			if !ok {
				return
			}
			if adv, ok := cmd.Command.Msg().(*msgs.Advance); ok {
				mctx.MessageTaken()
				reply := &msgs.State{}
				reply.Events = uint64(adv.Count)
				cmd.Command.Done(reply)
			}
		}))
		return nil
	}))
	go ctlLoop.Run(ctx)

	serverSide, clientSide := net.Pipe()
	go env.server.Serve(stream.New(serverSide))

	env.conn = remote.NewPipeConn(stream.New(clientSide))
	clientLoop := fx.NewLoop().WithInterval(10 * time.Millisecond)
	clientLoop.Add(env.conn)
	clientLoop.AddController(fx.PrLvNormal, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			mctx.MessageTaken()
			env.eventsCh <- mctx.CurrentMessage()
		}))
		return nil
	}))
	go clientLoop.Run(ctx)

	deadline := time.Now().Add(time.Second)
	for env.server.Connections() == 0 {
		require.True(t, time.Now().Before(deadline), "server connection timeout")
		time.Sleep(time.Millisecond)
	}
	return env
}

func waitResult(t *testing.T, f remote.CommandFuture) remote.Result {
	select {
	case r := <-f.ResultChan():
		return r
	case <-time.After(time.Second):
		t.Fatal("result timeout")
	}
	return remote.Result{}
}

func TestCommandReply(t *testing.T) {
	env := newRemoteTestEnv(t)
	defer env.cancel()

	r := waitResult(t, env.conn.DoCommand(msgs.NewAdvance(5)))
	require.NoError(t, r.Err)
	require.Equal(t, uint64(5), r.Msg.(*msgs.State).Events)

	r = waitResult(t, env.conn.DoCommand(&msgs.StateQuery{}))
	require.EqualError(t, r.Err, msgs.ErrUnsupportedCommand.Error())
}

func TestEventBroadcast(t *testing.T) {
	env := newRemoteTestEnv(t)
	defer env.cancel()

	require.NoError(t, env.server.SendEvent(context.Background(), msgs.NewFaultEvent(errors.New("bus fault"))))
	select {
	case msg := <-env.eventsCh:
		require.Equal(t, "bus fault", msg.(*msgs.FaultEvent).Message)
	case <-time.After(time.Second):
		t.Fatal("event timeout")
	}
}

func TestNotCommand(t *testing.T) {
	env := newRemoteTestEnv(t)
	defer env.cancel()
	r := waitResult(t, env.conn.DoCommand(msgs.NewFaultEvent(errors.New("x"))))
	require.Error(t, r.Err)
}

func TestRegistrarMux(t *testing.T) {
	var sent []fx.Message
	failure := errors.New("offline")
	mux := &remote.RegistrarMux{}
	mux.Add(registrarFunc(func(msg fx.Message) error {
		sent = append(sent, msg)
		return nil
	}), registrarFunc(func(fx.Message) error { return failure }))
	msg := &msgs.StateEvent{}
	require.EqualError(t, mux.SendEvent(context.Background(), msg), "offline")
	require.Equal(t, []fx.Message{msg}, sent)
}

type registrarFunc func(fx.Message) error

func (f registrarFunc) SendEvent(_ context.Context, msg fx.Message) error {
	return f(msg)
}

func TestDirectConnector(t *testing.T) {
	ref := remote.ControllerRef{Type: "tcp", ID: "localhost:1"}
	failure := errors.New("refused")
	c := &remote.DirectConnector{
		Ref:  ref,
		Dial: func(context.Context) (remote.PacketReadWriter, error) { return nil, failure },
	}
	infos, err := c.Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, []remote.ControllerInfo{{Ref: ref}}, infos)
	_, err = c.Connect(context.Background(), ref)
	require.Equal(t, failure, err)
	require.Equal(t, "tcp/localhost:1", ref.Name())
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in    string
		ref   remote.ControllerRef
		valid bool
	}{
		{"sixstep/bench1", remote.ControllerRef{Type: "sixstep", ID: "bench1"}, true},
		{"ws/localhost:8080/ctl", remote.ControllerRef{Type: "ws", ID: "localhost:8080/ctl"}, true},
		{"sixstep", remote.ControllerRef{}, false},
		{"sixstep/", remote.ControllerRef{Type: "sixstep"}, false},
		{"/bench1", remote.ControllerRef{ID: "bench1"}, false},
	}
	for _, test := range tests {
		ref, err := remote.ParseRef(test.in)
		require.Equal(t, test.ref, ref, test.in)
		if test.valid {
			require.NoError(t, err, test.in)
			require.Equal(t, test.in, ref.String())
		} else {
			require.Error(t, err, test.in)
		}
	}
}
