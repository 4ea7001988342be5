package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/sixstep/pkg/commutation"
	fx "github.com/robotalks/sixstep/pkg/framework"
	pb "github.com/robotalks/sixstep/pkg/proto/sixstep/v1"
)

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupSixStep uint32 = 0x00010000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID  uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	StateQueryTypeID uint32 = GroupSixStep | 0x0000
	StateTypeID      uint32 = StateQueryTypeID | TypeIDMaskReply
	AdvanceTypeID    uint32 = GroupSixStep | 0x0001
	RunControlTypeID uint32 = GroupSixStep | 0x0002
	StateEventTypeID uint32 = GroupSixStep | TypeIDKindEvent | 0x0000
	FaultEventTypeID uint32 = GroupSixStep | TypeIDKindEvent | 0x0001
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
	pb.CommandOK
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return &m.CommandOK }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	pb.CommandErr
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return NewCommandErrFromMsg(err.Error())
}

// NewCommandErrFromMsg creates a CommandErr.
func NewCommandErrFromMsg(message string) *CommandErr {
	return &CommandErr{CommandErr: pb.CommandErr{Message: message}}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return &m.CommandErr }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// StateQuery command.
type StateQuery struct {
	pb.StateQuery
}

// NewMessage implements Message.
func (m *StateQuery) NewMessage() fx.Message { return &StateQuery{} }

// TypeID implements SerializableMessage.
func (m *StateQuery) TypeID() uint32 { return StateQueryTypeID }

// Serializable implements SerializableMessage.
func (m *StateQuery) Serializable() proto.Message { return &m.StateQuery }

// State is the reply of StateQuery, Advance and RunControl.
type State struct {
	pb.State
}

// NewMessage implements Message.
func (m *State) NewMessage() fx.Message { return &State{} }

// TypeID implements SerializableMessage.
func (m *State) TypeID() uint32 { return StateTypeID }

// Serializable implements SerializableMessage.
func (m *State) Serializable() proto.Message { return &m.State }

// StateEvent reports state changes.
type StateEvent struct {
	pb.State
}

// NewMessage implements Message.
func (m *StateEvent) NewMessage() fx.Message { return &StateEvent{} }

// TypeID implements SerializableMessage.
func (m *StateEvent) TypeID() uint32 { return StateEventTypeID }

// Serializable implements SerializableMessage.
func (m *StateEvent) Serializable() proto.Message { return &m.State }

// Advance command runs Count commutation events.
type Advance struct {
	pb.Advance
}

// NewAdvance creates an Advance.
func NewAdvance(count uint32) *Advance {
	return &Advance{Advance: pb.Advance{Count: count}}
}

// NewMessage implements Message.
func (m *Advance) NewMessage() fx.Message { return &Advance{} }

// TypeID implements SerializableMessage.
func (m *Advance) TypeID() uint32 { return AdvanceTypeID }

// Serializable implements SerializableMessage.
func (m *Advance) Serializable() proto.Message { return &m.Advance }

// RunControl command starts or stops periodic commutation events.
type RunControl struct {
	pb.RunControl
}

// NewMessage implements Message.
func (m *RunControl) NewMessage() fx.Message { return &RunControl{} }

// TypeID implements SerializableMessage.
func (m *RunControl) TypeID() uint32 { return RunControlTypeID }

// Serializable implements SerializableMessage.
func (m *RunControl) Serializable() proto.Message { return &m.RunControl }

// FaultEvent reports the fatal error.
type FaultEvent struct {
	pb.FaultEvent
}

// NewFaultEvent creates a FaultEvent.
func NewFaultEvent(err error) *FaultEvent {
	return &FaultEvent{FaultEvent: pb.FaultEvent{Message: err.Error()}}
}

// NewMessage implements Message.
func (m *FaultEvent) NewMessage() fx.Message { return &FaultEvent{} }

// TypeID implements SerializableMessage.
func (m *FaultEvent) TypeID() uint32 { return FaultEventTypeID }

// Serializable implements SerializableMessage.
func (m *FaultEvent) Serializable() proto.Message { return &m.FaultEvent }

// Snapshot is what a State carries in commutation types.
type Snapshot struct {
	Step       commutation.Step
	Events     uint64
	Err        error
	Active     commutation.Activation
	Running    bool
	IntervalUs uint32
}

// StateFrom fills a pb.State from a snapshot.
func StateFrom(s Snapshot) pb.State {
	st := pb.State{
		Step:       uint32(s.Step),
		Events:     s.Events,
		Halted:     s.Err != nil,
		Running:    s.Running,
		IntervalUs: s.IntervalUs,
	}
	if s.Err != nil {
		st.Error = s.Err.Error()
	}
	for _, ch := range s.Active {
		st.Channels = append(st.Channels, &pb.ChannelState{
			Main:          ch.Main,
			Complementary: ch.Complementary,
			Pwm:           ch.Mode == commutation.ModePWM,
		})
	}
	return st
}

// StepOf returns the step in a pb.State.
func StepOf(st *pb.State) commutation.Step {
	return commutation.Step(st.Step)
}

// ActivationOf returns the channel activation in a pb.State.
func ActivationOf(st *pb.State) (act commutation.Activation) {
	for n, ch := range st.GetChannels() {
		if n >= len(act) || ch == nil {
			break
		}
		act[n].Main, act[n].Complementary = ch.Main, ch.Complementary
		if ch.Pwm {
			act[n].Mode = commutation.ModePWM
		}
	}
	return
}
