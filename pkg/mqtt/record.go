package mqtt

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/sdep.go/pkg/sdep"
)

// Exchange is the record published for every dispatched command.
type Exchange struct {
	Source    string `protobuf:"bytes,1,opt,name=source,proto3" json:"source,omitempty"`
	Command   string `protobuf:"bytes,2,opt,name=command,proto3" json:"command,omitempty"`
	MsgType   uint32 `protobuf:"varint,3,opt,name=msg_type,proto3" json:"msg_type,omitempty"`
	CmdId     uint32 `protobuf:"varint,4,opt,name=cmd_id,proto3" json:"cmd_id,omitempty"`
	Length    uint32 `protobuf:"varint,5,opt,name=length,proto3" json:"length,omitempty"`
	Payload   []byte `protobuf:"bytes,6,opt,name=payload,proto3" json:"payload,omitempty"`
	Truncated bool   `protobuf:"varint,7,opt,name=truncated,proto3" json:"truncated,omitempty"`
	Error     string `protobuf:"bytes,8,opt,name=error,proto3" json:"error,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Exchange) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Exchange) Reset() { *m = Exchange{} }

// String implements proto.Message.
func (m *Exchange) String() string { return proto.CompactTextString(m) }

// NewExchange builds the record from a dispatch outcome.
func NewExchange(source, cmd string, reply *sdep.Message, err error) *Exchange {
	x := &Exchange{Source: source, Command: cmd}
	if err != nil {
		x.Error = err.Error()
	}
	if reply != nil {
		x.MsgType = uint32(reply.Type)
		x.CmdId = uint32(reply.CmdID)
		x.Length = uint32(reply.Length)
		x.Payload = reply.Payload
		x.Truncated = reply.Truncated()
	}
	return x
}

// Reply rebuilds the response message, nil if the exchange failed.
func (m *Exchange) Reply() *sdep.Message {
	if m.Error != "" {
		return nil
	}
	return &sdep.Message{
		Header: sdep.Header{
			Type:   sdep.MsgType(m.MsgType),
			CmdID:  uint16(m.CmdId),
			Length: byte(m.Length),
		},
		Payload: m.Payload,
	}
}

// Encode encodes the record.
func (m *Exchange) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeExchange decodes a published record.
func DecodeExchange(data []byte) (*Exchange, error) {
	var x Exchange
	if err := proto.Unmarshal(data, &x); err != nil {
		return nil, err
	}
	return &x, nil
}
