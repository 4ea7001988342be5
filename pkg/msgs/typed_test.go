package msgs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sixstep/pkg/commutation"
	fx "github.com/robotalks/sixstep/pkg/framework"
	pb "github.com/robotalks/sixstep/pkg/proto/sixstep/v1"
)

type plainMsg struct{}

func (m *plainMsg) NewMessage() fx.Message { return &plainMsg{} }

func TestTypeIDKinds(t *testing.T) {
	testCases := []struct {
		name    string
		typeID  uint32
		command bool
		reply   bool
	}{
		{"command ok", CommandOKTypeID, true, true},
		{"state query", StateQueryTypeID, true, false},
		{"state", StateTypeID, true, true},
		{"advance", AdvanceTypeID, true, false},
		{"state event", StateEventTypeID, false, false},
		{"fault event", FaultEventTypeID, false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typed := &Typed{Typed: pb.Typed{TypeId: tc.typeID}}
			require.Equal(t, tc.command, typed.IsCommand())
			require.Equal(t, !tc.command, typed.IsEvent())
			require.Equal(t, tc.reply, typed.IsReply())
		})
	}
}

func TestTypedEnvelope(t *testing.T) {
	typed, err := TypedFrom(NewAdvance(7))
	require.NoError(t, err)
	typed.Sequence = 3
	data, err := typed.Encode()
	require.NoError(t, err)

	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, AdvanceTypeID, decoded.TypeId)
	require.Equal(t, uint32(3), decoded.Sequence)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.Equal(t, uint32(7), msg.(*Advance).Count)
}

func TestTypedErrors(t *testing.T) {
	_, err := TypedFrom(&plainMsg{})
	require.Equal(t, ErrNotSerializable, err)

	_, err = (&Typed{Typed: pb.Typed{TypeId: GroupCustom | 0x10}}).Decode()
	require.Equal(t, &ErrUnknownType{TypeID: GroupCustom | 0x10}, err)

	cmdErr := NewCommandErr(errors.New("halted"))
	require.EqualError(t, cmdErr, "halted")
}

func TestStateConversion(t *testing.T) {
	act := commutation.Pattern(commutation.Step2)
	failure := errors.New("bus fault")
	st := StateFrom(Snapshot{Step: commutation.Step3, Events: 3, Err: failure, Active: act})
	require.True(t, st.Halted)
	require.Equal(t, "bus fault", st.Error)
	require.Len(t, st.Channels, commutation.ChannelCount)
	require.Equal(t, commutation.Step3, StepOf(&st))
	require.Equal(t, act, ActivationOf(&st))
}

func TestRegister(t *testing.T) {
	require.Panics(t, func() { Register((*Advance)(nil)) })
	msg, err := NewByTypeID(StateTypeID)
	require.NoError(t, err)
	require.IsType(t, &State{}, msg)
}
