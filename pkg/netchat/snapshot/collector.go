// Package snapshot implements the distributed causal snapshot collector: it
// accumulates per-peer response slices, enforces causal consistency, and
// produces the final sorted transcript.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/ehariz/netchat/pkg/netchat/types"
)

// Accumulator holds per-snapshot state. It is reset on each GetSnapshot and
// cleared after the dump completes.
type Accumulator struct {
	requesterID types.NodeId
	dates       types.Clock
	messages    map[types.NodeId][]types.Msg
	isWaiting   bool
	log         types.Logger
}

// New creates an empty, non-waiting collector.
func New(log types.Logger) *Accumulator {
	return &Accumulator{log: log}
}

// Begin resets the collector for a freshly issued GetSnapshot and seeds it
// with the requester's own local view.
func (a *Accumulator) Begin(requesterID types.NodeId, selfDate types.Date, selfMessages []types.Msg) {
	a.requesterID = requesterID
	a.dates = types.Clock{requesterID: selfDate}
	a.messages = map[types.NodeId][]types.Msg{requesterID: cloneMsgs(selfMessages)}
	a.isWaiting = true
}

// IsWaiting reports whether a snapshot is currently being collected.
func (a *Accumulator) IsWaiting() bool {
	return a.isWaiting
}

// Accept records one SnapshotResponse. A response that arrives while no
// snapshot is being collected is dropped and logged. If the responder
// already answered, the new response is dropped and logged ("received
// snapshot twice from same node"). Returns the number of distinct
// responders recorded so far.
func (a *Accumulator) Accept(senderID types.NodeId, senderDate types.Date, payload []types.Msg) int {
	if !a.isWaiting {
		a.log.Warnf("dropping snapshot response from %s, no snapshot in progress", senderID)
		return len(a.dates)
	}
	if a.dates.Has(senderID) {
		a.log.Warnf("received snapshot twice from same node %s", senderID)
		return len(a.dates)
	}
	a.dates[senderID] = senderDate
	a.messages[senderID] = cloneMsgs(payload)
	return len(a.dates)
}

// IsComplete reports whether every id in knownIds has responded.
func (a *Accumulator) IsComplete(knownIds []types.NodeId) bool {
	for _, id := range knownIds {
		if !a.dates.Has(id) {
			return false
		}
	}
	return true
}

// snapshotFile is the on-disk shape of snapshot.json.
type snapshotFile struct {
	RequesterID types.NodeId                 `json:"requester_id"`
	Dates       types.Clock                  `json:"dates"`
	Messages    map[types.NodeId][]types.Msg `json:"messages"`
}

// Dump filters each responder's list to the messages it had actually sent
// at its cut, merges and deduplicates them into one causally ordered
// transcript, and writes snapshot.json and history.json under dir,
// overwriting any previous contents.
func (a *Accumulator) Dump(dir string) error {
	filtered := make(map[types.NodeId][]types.Msg, len(a.messages))
	seen := make(map[types.MsgId]types.Msg)
	var order []types.MsgId

	for responder, msgs := range a.messages {
		cut := a.dates[responder]
		var keep []types.Msg
		for _, m := range msgs {
			if m.Clock.Get(responder) > cut {
				continue
			}
			keep = append(keep, m)
			if _, ok := seen[m.ID]; !ok {
				seen[m.ID] = m
				order = append(order, m.ID)
			}
		}
		filtered[responder] = keep
	}

	history := make([]types.Msg, 0, len(order))
	for _, id := range order {
		history = append(history, seen[id])
	}

	requesterID := a.requesterID
	sort.SliceStable(history, func(i, j int) bool {
		return less(history[i], history[j], requesterID)
	})

	if err := writeJSON(filepath.Join(dir, "snapshot.json"), snapshotFile{
		RequesterID: a.requesterID,
		Dates:       a.dates,
		Messages:    filtered,
	}); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "history.json"), history); err != nil {
		return err
	}
	return nil
}

// Clear empties the collector, leaving it ready for the next GetSnapshot.
func (a *Accumulator) Clear() {
	a.requesterID = ""
	a.dates = nil
	a.messages = nil
	a.isWaiting = false
}

// less implements the requester-local ordering relation between two
// messages in the final transcript. It is a partial order on concurrent
// events: ties are left as "equal", so the stable sort in Dump keeps them
// in the order Dump collected them. That order keeps each responder's own
// list order; the order between different responders follows Go map
// iteration and is not defined.
func less(a, b types.Msg, requesterID types.NodeId) bool {
	ra, rb := a.Clock.Get(requesterID), b.Clock.Get(requesterID)
	if ra != rb {
		return ra < rb
	}

	if a.Clock.Has(a.SenderID) && b.Clock.Has(a.SenderID) {
		av, bv := a.Clock.Get(a.SenderID), b.Clock.Get(a.SenderID)
		if av != bv {
			return av < bv
		}
	}

	if a.Clock.Has(b.SenderID) && b.Clock.Has(b.SenderID) {
		av, bv := a.Clock.Get(b.SenderID), b.Clock.Get(b.SenderID)
		if av != bv {
			return av < bv
		}
	}

	return false
}

func cloneMsgs(in []types.Msg) []types.Msg {
	out := make([]types.Msg, len(in))
	copy(out, in)
	return out
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "netchat: marshalling %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "netchat: writing %s", path)
	}
	return nil
}
