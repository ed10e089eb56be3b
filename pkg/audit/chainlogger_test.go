package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainLinksEntries(t *testing.T) {
	c := NewChainLogger()

	first := c.Record(Event{Operation: "hold", TaskID: "task-1", Amount: "105"})
	second := c.Record(Event{Operation: "release", TaskID: "task-1", Amount: "105"})

	assert.Equal(t, strings.Repeat("0", 64), first.PreviousHash)
	assert.Equal(t, first.Hash, second.PreviousHash)
	assert.Contains(t, first.Payload, `"operation":"hold"`)

	assert.True(t, VerifyChain(c.Entries()))
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	c := NewChainLogger()
	c.Append("alpha")
	c.Append("beta")
	c.Append("gamma")

	entries := c.Entries()
	require.True(t, VerifyChain(entries))

	tampered := make([]*LogEntry, len(entries))
	for i, e := range entries {
		cp := *e
		tampered[i] = &cp
	}
	tampered[1].Payload = "beta-rewritten"

	assert.False(t, VerifyChain(tampered))
}

func TestVerifyChainDetectsReordering(t *testing.T) {
	c := NewChainLogger()
	c.Append("alpha")
	c.Append("beta")

	entries := c.Entries()
	entries[0], entries[1] = entries[1], entries[0]

	assert.False(t, VerifyChain(entries))
}

func TestVerifyChainEmpty(t *testing.T) {
	assert.True(t, VerifyChain(nil))
}
