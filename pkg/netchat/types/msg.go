package types

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Msg is the single record exchanged between nodes: an id chosen once by the
// originator, the originating node, a tagged header and the sender's clock
// at the moment the message left its hands. Its clock field is replaced
// exactly once, on re-emission by a flooding peer.
type Msg struct {
	ID       MsgId
	SenderID NodeId
	Header   Header
	Clock    Clock
}

// wireMsg mirrors Msg with the exact field names the wire format requires.
// It is used both for encoding and, with DisallowUnknownFields, to reject
// any unrecognized top-level field.
type wireMsg struct {
	ID       MsgId           `json:"id"`
	SenderID NodeId          `json:"sender_id"`
	Header   json.RawMessage `json:"header"`
	Clock    Clock           `json:"clock"`
}

// MarshalJSON implements Msg's wire encoding.
func (m Msg) MarshalJSON() ([]byte, error) {
	headerBytes, err := json.Marshal(m.Header)
	if err != nil {
		return nil, errors.Wrap(err, "netchat: marshalling header")
	}
	wire := wireMsg{
		ID:       m.ID,
		SenderID: m.SenderID,
		Header:   headerBytes,
		Clock:    m.Clock,
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements Msg's wire decoding. All fields are required;
// unrecognized fields fail the decode.
func (m *Msg) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	var wire wireMsg
	if err := decoder.Decode(&wire); err != nil {
		return errors.Wrap(err, "netchat: decoding Msg envelope")
	}
	var present struct {
		ID       *MsgId  `json:"id"`
		SenderID *NodeId `json:"sender_id"`
	}
	if err := json.Unmarshal(data, &present); err != nil {
		return errors.Wrap(err, "netchat: decoding Msg envelope")
	}
	if present.ID == nil {
		return errors.New("netchat: Msg missing required field \"id\"")
	}
	if present.SenderID == nil {
		return errors.New("netchat: Msg missing required field \"sender_id\"")
	}
	if wire.Header == nil {
		return errors.New("netchat: Msg missing required field \"header\"")
	}
	if wire.Clock == nil {
		return errors.New("netchat: Msg missing required field \"clock\"")
	}
	var header Header
	if err := json.Unmarshal(wire.Header, &header); err != nil {
		return errors.Wrap(err, "netchat: decoding Msg.header")
	}
	m.ID = wire.ID
	m.SenderID = wire.SenderID
	m.Header = header
	m.Clock = wire.Clock
	return nil
}
