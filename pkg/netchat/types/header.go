package types

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// HeaderKind tags the variant held by a Header. It doubles as the externally
// tagged enumeration's wire tag.
type HeaderKind string

const (
	Public           HeaderKind = "Public"
	Private          HeaderKind = "Private"
	Connection       HeaderKind = "Connection"
	Disconnection    HeaderKind = "Disconnection"
	SnapshotRequest  HeaderKind = "SnapshotRequest"
	SnapshotResponse HeaderKind = "SnapshotResponse"
)

// ErrUnknownHeaderKind is returned when a decoded header tag does not match
// any known variant.
var ErrUnknownHeaderKind = errors.New("netchat: unknown header kind")

// Header is a tagged variant of the six message kinds the protocol knows.
// Every peer must handle every kind on ingress because any peer can forward
// any header, even variants that are only ever originated or addressed
// locally.
type Header struct {
	Kind HeaderKind

	// Text holds the Public payload, or the Private message text.
	Text string

	// Recipient holds the Private recipient, or the requester id for
	// SnapshotRequest/SnapshotResponse.
	Recipient NodeId

	// Responses holds the responder's sent Msgs for SnapshotResponse.
	Responses []Msg
}

// NewPublicHeader builds a broadcast chat line header.
func NewPublicHeader(text string) Header {
	return Header{Kind: Public, Text: text}
}

// NewPrivateHeader builds a direct-message header.
func NewPrivateHeader(recipient NodeId, text string) Header {
	return Header{Kind: Private, Recipient: recipient, Text: text}
}

// NewConnectionHeader builds a join-announcement header.
func NewConnectionHeader() Header {
	return Header{Kind: Connection}
}

// NewDisconnectionHeader builds a leave-announcement header.
func NewDisconnectionHeader() Header {
	return Header{Kind: Disconnection}
}

// NewSnapshotRequestHeader builds a snapshot-initiation header.
func NewSnapshotRequestHeader(requester NodeId) Header {
	return Header{Kind: SnapshotRequest, Recipient: requester}
}

// NewSnapshotResponseHeader builds a snapshot-reply header.
func NewSnapshotResponseHeader(requester NodeId, sent []Msg) Header {
	return Header{Kind: SnapshotResponse, Recipient: requester, Responses: sent}
}

// MarshalJSON implements the externally tagged encoding: unit
// variants encode as a bare tag string, others as a single-key object whose
// value is the payload.
func (h Header) MarshalJSON() ([]byte, error) {
	switch h.Kind {
	case Connection, Disconnection:
		return json.Marshal(string(h.Kind))
	case Public:
		return json.Marshal(map[string]string{string(Public): h.Text})
	case Private:
		return json.Marshal(map[string][2]string{string(Private): {string(h.Recipient), h.Text}})
	case SnapshotRequest:
		return json.Marshal(map[string]string{string(SnapshotRequest): string(h.Recipient)})
	case SnapshotResponse:
		payload := [2]interface{}{string(h.Recipient), h.Responses}
		return json.Marshal(map[string][2]interface{}{string(SnapshotResponse): payload})
	default:
		return nil, errors.Wrapf(ErrUnknownHeaderKind, "kind %q", h.Kind)
	}
}

// UnmarshalJSON implements the inverse of MarshalJSON.
func (h *Header) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		switch HeaderKind(bare) {
		case Connection:
			*h = NewConnectionHeader()
			return nil
		case Disconnection:
			*h = NewDisconnectionHeader()
			return nil
		default:
			return errors.Wrapf(ErrUnknownHeaderKind, "bare tag %q", bare)
		}
	}

	var tagged map[HeaderKind]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return errors.Wrap(err, "netchat: header is neither a bare tag nor a tagged object")
	}
	if len(tagged) != 1 {
		return errors.Errorf("netchat: header object must carry exactly one tag, got %d", len(tagged))
	}

	for kind, payload := range tagged {
		switch kind {
		case Public:
			var text string
			if err := json.Unmarshal(payload, &text); err != nil {
				return errors.Wrap(err, "netchat: decoding Public payload")
			}
			*h = NewPublicHeader(text)
		case Private:
			var pair [2]string
			if err := json.Unmarshal(payload, &pair); err != nil {
				return errors.Wrap(err, "netchat: decoding Private payload")
			}
			*h = NewPrivateHeader(NodeId(pair[0]), pair[1])
		case SnapshotRequest:
			var requester string
			if err := json.Unmarshal(payload, &requester); err != nil {
				return errors.Wrap(err, "netchat: decoding SnapshotRequest payload")
			}
			*h = NewSnapshotRequestHeader(NodeId(requester))
		case SnapshotResponse:
			var pair struct {
				Requester string
				Messages  []Msg
			}
			var raw [2]json.RawMessage
			if err := json.Unmarshal(payload, &raw); err != nil {
				return errors.Wrap(err, "netchat: decoding SnapshotResponse payload")
			}
			if err := json.Unmarshal(raw[0], &pair.Requester); err != nil {
				return errors.Wrap(err, "netchat: decoding SnapshotResponse requester")
			}
			if err := json.Unmarshal(raw[1], &pair.Messages); err != nil {
				return errors.Wrap(err, "netchat: decoding SnapshotResponse messages")
			}
			*h = NewSnapshotResponseHeader(NodeId(pair.Requester), pair.Messages)
		default:
			return errors.Wrapf(ErrUnknownHeaderKind, "tag %q", kind)
		}
		return nil
	}
	return ErrUnknownHeaderKind
}
