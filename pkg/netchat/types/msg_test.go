package types

import "testing"

func TestMsg_RoundTripPublic(t *testing.T) {
	m := Msg{
		ID:       1,
		SenderID: "asdasdw",
		Header:   NewPublicHeader("I like trains !"),
		Clock:    Clock{"1": 2, "3": 4},
	}
	roundTrip(t, m)
}

func TestMsg_RoundTripPrivate(t *testing.T) {
	m := Msg{
		ID:       1,
		SenderID: "asdasdw",
		Header:   NewPrivateHeader("42", "I like trains !"),
		Clock:    Clock{"1": 2, "3": 4},
	}
	roundTrip(t, m)
}

func TestMsg_RoundTripUnitVariants(t *testing.T) {
	for _, h := range []Header{NewConnectionHeader(), NewDisconnectionHeader()} {
		m := Msg{ID: 9, SenderID: "A", Header: h, Clock: Clock{"A": 1}}
		roundTrip(t, m)
	}
}

func TestMsg_RoundTripSnapshotRequest(t *testing.T) {
	m := Msg{
		ID:       2,
		SenderID: "A",
		Header:   NewSnapshotRequestHeader("A"),
		Clock:    Clock{"A": 1},
	}
	roundTrip(t, m)
}

func TestMsg_RoundTripSnapshotResponse(t *testing.T) {
	payload := []Msg{
		{ID: 3, SenderID: "B", Header: NewPublicHeader("hi"), Clock: Clock{"B": 1}},
	}
	m := Msg{
		ID:       4,
		SenderID: "B",
		Header:   NewSnapshotResponseHeader("A", payload),
		Clock:    Clock{"A": 1, "B": 1},
	}
	roundTrip(t, m)
}

func roundTrip(t *testing.T, m Msg) {
	t.Helper()
	line, err := Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != m.ID || decoded.SenderID != m.SenderID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, m)
	}
	if decoded.Header.Kind != m.Header.Kind {
		t.Fatalf("header kind mismatch: got %v, want %v", decoded.Header.Kind, m.Header.Kind)
	}
	if !decoded.Clock.Equal(m.Clock) {
		t.Fatalf("clock mismatch: got %v, want %v", decoded.Clock, m.Clock)
	}
}

func TestDecode_RejectsUnknownField(t *testing.T) {
	raw := `{"id":1,"sender_id":"A","header":"Connection","clock":{"A":1},"extra":true}`
	if _, err := Decode(raw); err == nil {
		t.Fatalf("expected an error for an unknown field")
	}
}

func TestDecode_RejectsBlankLine(t *testing.T) {
	if _, err := Decode("   \n"); err != ErrBlankLine {
		t.Fatalf("expected ErrBlankLine, got %v", err)
	}
}

func TestDecode_RejectsUnknownHeaderTag(t *testing.T) {
	raw := `{"id":1,"sender_id":"A","header":{"Bogus":"x"},"clock":{"A":1}}`
	if _, err := Decode(raw); err == nil {
		t.Fatalf("expected an error for an unknown header tag")
	}
}
