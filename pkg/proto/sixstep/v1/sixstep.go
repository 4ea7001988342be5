// Package v1 defines the wire schema of remote messages, see sixstep.proto.
package v1

import (
	"github.com/golang/protobuf/proto"
)

// Typed is the envelope of every message on the wire.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *Typed) Reset()         { *m = Typed{} }
func (m *Typed) String() string { return proto.CompactTextString(m) }
func (*Typed) ProtoMessage()    {}

// GetTypeId returns TypeId.
func (m *Typed) GetTypeId() uint32 {
	if m != nil {
		return m.TypeId
	}
	return 0
}

// GetSequence returns Sequence.
func (m *Typed) GetSequence() uint32 {
	if m != nil {
		return m.Sequence
	}
	return 0
}

// CommandOK is the generic successful reply.
type CommandOK struct {
}

func (m *CommandOK) Reset()         { *m = CommandOK{} }
func (m *CommandOK) String() string { return proto.CompactTextString(m) }
func (*CommandOK) ProtoMessage()    {}

// CommandErr is the generic failed reply.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *CommandErr) Reset()         { *m = CommandErr{} }
func (m *CommandErr) String() string { return proto.CompactTextString(m) }
func (*CommandErr) ProtoMessage()    {}

// StateQuery requests a State reply.
type StateQuery struct {
}

func (m *StateQuery) Reset()         { *m = StateQuery{} }
func (m *StateQuery) String() string { return proto.CompactTextString(m) }
func (*StateQuery) ProtoMessage()    {}

// ChannelState is the activation of one timer channel.
type ChannelState struct {
	Main          bool `protobuf:"varint,1,opt,name=main,proto3" json:"main,omitempty"`
	Complementary bool `protobuf:"varint,2,opt,name=complementary,proto3" json:"complementary,omitempty"`
	Pwm           bool `protobuf:"varint,3,opt,name=pwm,proto3" json:"pwm,omitempty"`
}

func (m *ChannelState) Reset()         { *m = ChannelState{} }
func (m *ChannelState) String() string { return proto.CompactTextString(m) }
func (*ChannelState) ProtoMessage()    {}

// State is the sequencer state.
type State struct {
	Step       uint32          `protobuf:"varint,1,opt,name=step,proto3" json:"step,omitempty"`
	Events     uint64          `protobuf:"varint,2,opt,name=events,proto3" json:"events,omitempty"`
	Halted     bool            `protobuf:"varint,3,opt,name=halted,proto3" json:"halted,omitempty"`
	Error      string          `protobuf:"bytes,4,opt,name=error,proto3" json:"error,omitempty"`
	Channels   []*ChannelState `protobuf:"bytes,5,rep,name=channels,proto3" json:"channels,omitempty"`
	Running    bool            `protobuf:"varint,6,opt,name=running,proto3" json:"running,omitempty"`
	IntervalUs uint32          `protobuf:"varint,7,opt,name=interval_us,json=intervalUs,proto3" json:"interval_us,omitempty"`
}

func (m *State) Reset()         { *m = State{} }
func (m *State) String() string { return proto.CompactTextString(m) }
func (*State) ProtoMessage()    {}

// GetChannels returns Channels.
func (m *State) GetChannels() []*ChannelState {
	if m != nil {
		return m.Channels
	}
	return nil
}

// Advance runs a number of commutation events.
type Advance struct {
	Count uint32 `protobuf:"varint,1,opt,name=count,proto3" json:"count,omitempty"`
}

func (m *Advance) Reset()         { *m = Advance{} }
func (m *Advance) String() string { return proto.CompactTextString(m) }
func (*Advance) ProtoMessage()    {}

// RunControl starts or stops periodic commutation events.
type RunControl struct {
	Running    bool   `protobuf:"varint,1,opt,name=running,proto3" json:"running,omitempty"`
	IntervalUs uint32 `protobuf:"varint,2,opt,name=interval_us,json=intervalUs,proto3" json:"interval_us,omitempty"`
}

func (m *RunControl) Reset()         { *m = RunControl{} }
func (m *RunControl) String() string { return proto.CompactTextString(m) }
func (*RunControl) ProtoMessage()    {}

// FaultEvent reports the fatal error which halted the sequencer.
type FaultEvent struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *FaultEvent) Reset()         { *m = FaultEvent{} }
func (m *FaultEvent) String() string { return proto.CompactTextString(m) }
func (*FaultEvent) ProtoMessage()    {}
