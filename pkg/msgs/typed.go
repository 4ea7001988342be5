package msgs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/sixstep/pkg/framework"
	pb "github.com/robotalks/sixstep/pkg/proto/sixstep/v1"
)

// A type ID is laid out as
//
//	bit 31      kind, set for events
//	bits 16-30  group
//	bit 15      reply, commands only
//	bits 0-15   id in the group
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000
)

// Kinds of type IDs.
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

var (
	// ErrNotSerializable is returned for messages without a type ID.
	ErrNotSerializable = errors.New("not serializable message")
	// ErrUnsupportedCommand is replied to commands nobody handles.
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// ErrUnknownType is returned when decoding an unregistered type ID.
type ErrUnknownType struct {
	TypeID uint32
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// SerializableMessage is a message with a type ID and a protobuf body.
type SerializableMessage interface {
	fx.Message
	TypeID() uint32
	Serializable() proto.Message
}

var (
	registryLock sync.RWMutex
	registry     = make(map[uint32]SerializableMessage)
)

// Register adds message types for decoding. It panics when a type ID is
// registered twice.
func Register(types ...SerializableMessage) {
	registryLock.Lock()
	defer registryLock.Unlock()
	for _, t := range types {
		id := t.TypeID()
		if _, exist := registry[id]; exist {
			panic(fmt.Sprintf("type %x already registered", id))
		}
		registry[id] = t
	}
}

// NewByTypeID creates an empty message of typeID.
func NewByTypeID(typeID uint32) (SerializableMessage, error) {
	registryLock.RLock()
	t, ok := registry[typeID]
	registryLock.RUnlock()
	if !ok {
		return nil, &ErrUnknownType{TypeID: typeID}
	}
	return t.NewMessage().(SerializableMessage), nil
}

func init() {
	Register(
		(*CommandOK)(nil),
		(*CommandErr)(nil),
		(*StateQuery)(nil),
		(*State)(nil),
		(*StateEvent)(nil),
		(*Advance)(nil),
		(*RunControl)(nil),
		(*FaultEvent)(nil),
	)
}

// Typed is the envelope on the wire: a type ID, a sequence and the
// encoded message.
type Typed struct {
	pb.Typed
}

// TypedMsgHandler handles a decoded message with its envelope.
type TypedMsgHandler interface {
	HandleTypedMsg(context.Context, fx.Message, *Typed) error
}

// HandleTypedMsgFunc is func form of TypedMsgHandler.
type HandleTypedMsgFunc func(context.Context, fx.Message, *Typed) error

// HandleTypedMsg implements TypedMsgHandler.
func (f HandleTypedMsgFunc) HandleTypedMsg(ctx context.Context, msg fx.Message, typed *Typed) error {
	return f(ctx, msg, typed)
}

// TypedFrom encodes msg into an envelope with sequence 0.
func TypedFrom(msg fx.Message) (*Typed, error) {
	s, ok := msg.(SerializableMessage)
	if !ok {
		return nil, ErrNotSerializable
	}
	body, err := proto.Marshal(s.Serializable())
	if err != nil {
		return nil, err
	}
	typed := &Typed{}
	typed.TypeId, typed.Message = s.TypeID(), body
	return typed, nil
}

// DecodeTyped decodes an envelope. The message stays encoded.
func DecodeTyped(data []byte) (*Typed, error) {
	typed := &Typed{}
	if err := proto.Unmarshal(data, &typed.Typed); err != nil {
		return nil, err
	}
	return typed, nil
}

// Encode encodes the envelope.
func (p *Typed) Encode() ([]byte, error) {
	return proto.Marshal(&p.Typed)
}

// Decode decodes the message in the envelope.
func (p *Typed) Decode() (fx.Message, error) {
	msg, err := NewByTypeID(p.TypeId)
	if err != nil {
		return nil, err
	}
	if err := proto.Unmarshal(p.Message, msg.Serializable()); err != nil {
		return nil, err
	}
	return msg, nil
}

// Kind is TypeIDKindCommand or TypeIDKindEvent.
func (p *Typed) Kind() uint32 {
	return p.TypeId & TypeIDMaskKind
}

// IsCommand is true for commands and replies.
func (p *Typed) IsCommand() bool {
	return p.Kind() == TypeIDKindCommand
}

// IsEvent is true for events.
func (p *Typed) IsEvent() bool {
	return p.Kind() == TypeIDKindEvent
}

// IsReply is true for replies to commands.
func (p *Typed) IsReply() bool {
	return p.IsCommand() && p.TypeId&TypeIDMaskReply != 0
}
