package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chainTestKey = []byte("test-signing-key")

func sealedEvents(t *testing.T, n int) []Event {
	t.Helper()
	state := newChainState(chainTestKey)
	events := make([]Event, 0, n)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := range n {
		sealed, err := state.seal(Event{
			ID:        string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Severity:  SeverityInfo,
			Category:  CategorySystem,
			Action:    "test_action",
			Success:   true,
			Message:   "entry",
		})
		require.NoError(t, err)
		events = append(events, sealed)
	}
	return events
}

func TestVerifyIntactChain(t *testing.T) {
	events := sealedEvents(t, 10)
	report := verifyChain(chainTestKey, events)
	assert.True(t, report.Intact)
	assert.Equal(t, 10, report.Checked)
	assert.Equal(t, 0, report.Corrupted)
	assert.Equal(t, -1, report.FirstCorrupt)
}

func TestVerifyDetectsEditedEntry(t *testing.T) {
	events := sealedEvents(t, 10)
	events[4].Message = "tampered"

	report := verifyChain(chainTestKey, events)
	assert.False(t, report.Intact)
	assert.Equal(t, 4, report.FirstCorrupt)
	// The chain head diverges at the edit, so everything after is flagged.
	assert.Equal(t, 6, report.Corrupted)
}

func TestVerifyEditInvalidatesForwardOnly(t *testing.T) {
	events := sealedEvents(t, 10)
	events[7].Success = false

	report := verifyChain(chainTestKey, events)
	assert.GreaterOrEqual(t, report.FirstCorrupt, 7)
}

func TestVerifyWrongKey(t *testing.T) {
	events := sealedEvents(t, 3)
	report := verifyChain([]byte("other-key"), events)
	assert.Equal(t, 0, report.FirstCorrupt)
	assert.Equal(t, 3, report.Corrupted)
}

func TestTagStableForIdenticalContent(t *testing.T) {
	event := Event{
		ID:        "fixed",
		Timestamp: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		Severity:  SeverityWarning,
		Category:  CategoryThreat,
		Action:    "threat_detected",
		Success:   false,
		Message:   "rule fired",
		Metadata:  map[string]string{"rule": "sql.union_select", "subject": "s1"},
	}

	a := newChainState(chainTestKey)
	b := newChainState(chainTestKey)
	tagA, err := a.tag(event)
	require.NoError(t, err)
	tagB, err := b.tag(event)
	require.NoError(t, err)
	assert.Equal(t, tagA, tagB)
}

func TestSealRejectsNothingButNeverMutatesInput(t *testing.T) {
	state := newChainState(chainTestKey)
	original := Event{ID: "x", Timestamp: time.Now(), Message: "m"}
	sealed, err := state.seal(original)
	require.NoError(t, err)
	assert.NotEmpty(t, sealed.IntegrityTag)
	assert.Empty(t, original.IntegrityTag)
}
