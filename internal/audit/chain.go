package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// genesis anchors the hash chain before the first entry.
var genesis = sha256.Sum256([]byte("aegis.audit.genesis.v1"))

// chainState walks the tamper-evidence chain. The tag of entry n binds both
// the entry's canonical content and the chain value after entry n-1, so an
// edit at position k makes every tag from k onward unverifiable.
type chainState struct {
	key  []byte
	head []byte
}

func newChainState(key []byte) *chainState {
	head := make([]byte, sha256.Size)
	copy(head, genesis[:])
	return &chainState{key: key, head: head}
}

// tag computes the keyed integrity tag for an event given the current head.
// The event's IntegrityTag field must be empty.
func (c *chainState) tag(e Event) (string, error) {
	e.IntegrityTag = ""
	canonical, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, c.key)
	mac.Write(c.head)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// advance folds a fully tagged entry into the chain head.
func (c *chainState) advance(e Event) error {
	serialized, err := json.Marshal(e)
	if err != nil {
		return err
	}
	h := sha256.New()
	h.Write(c.head)
	h.Write(serialized)
	c.head = h.Sum(nil)
	return nil
}

// seal tags the event and advances the chain in one step; the returned event
// carries its final tag and must not be mutated afterwards.
func (c *chainState) seal(e Event) (Event, error) {
	tag, err := c.tag(e)
	if err != nil {
		return Event{}, err
	}
	e.IntegrityTag = tag
	if err := c.advance(e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// verifyChain replays entries from genesis and reports the first position
// whose stored tag does not match the recomputed one. After a mismatch the
// chain head has diverged, so every later entry is counted corrupted too.
func verifyChain(key []byte, entries []Event) VerifyReport {
	state := newChainState(key)
	report := VerifyReport{FirstCorrupt: -1}

	for i, entry := range entries {
		report.Checked++

		expected, err := state.tag(entry)
		if err != nil || !hmac.Equal([]byte(expected), []byte(entry.IntegrityTag)) {
			report.Corrupted++
			if report.FirstCorrupt == -1 {
				report.FirstCorrupt = i
			}
		}

		// Advance using the stored entry as-is; a divergent head keeps
		// flagging subsequent entries, matching the invalidate-forward rule.
		if err := state.advance(entry); err != nil {
			report.Corrupted++
			if report.FirstCorrupt == -1 {
				report.FirstCorrupt = i
			}
		}
	}

	report.Intact = report.Corrupted == 0
	return report
}
