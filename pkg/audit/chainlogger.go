package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Event is the audit payload for one escrow or wallet operation step.
type Event struct {
	Operation string `json:"operation"` // hold, release, refund, compensate, ...
	TaskID    string `json:"task_id,omitempty"`
	WalletID  string `json:"wallet_id,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// LogEntry is a single hash-chained audit record.
type LogEntry struct {
	Timestamp    string `json:"timestamp"`
	PreviousHash string `json:"previous_hash"`
	Payload      string `json:"payload"`
	Hash         string `json:"hash"`
}

// ChainLogger is a tamper-evident log: each entry's hash covers the payload
// and the previous entry's hash, so any rewrite of history breaks the chain.
// The escrow service appends every protocol step and every compensation here.
type ChainLogger struct {
	mu           sync.Mutex
	previousHash string
	entries      []*LogEntry
}

// NewChainLogger creates a ChainLogger rooted at a zero hash.
func NewChainLogger() *ChainLogger {
	return &ChainLogger{previousHash: strings.Repeat("0", 64)}
}

// Record marshals the event and appends it to the chain.
func (c *ChainLogger) Record(ev Event) *LogEntry {
	payload, err := json.Marshal(ev)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"operation":%q,"detail":"marshal failed"}`, ev.Operation))
	}
	return c.Append(string(payload))
}

// Append adds a raw payload entry to the chain.
func (c *ChainLogger) Append(payload string) *LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &LogEntry{
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		PreviousHash: c.previousHash,
		Payload:      payload,
	}
	entry.Hash = entryHash(entry.PreviousHash, entry.Timestamp, entry.Payload)

	c.previousHash = entry.Hash
	c.entries = append(c.entries, entry)
	return entry
}

// Entries returns a snapshot of the chain in append order.
func (c *ChainLogger) Entries() []*LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*LogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// VerifyChain checks that entries form an unbroken, untampered hash chain.
func VerifyChain(entries []*LogEntry) bool {
	for i, entry := range entries {
		if i > 0 && entry.PreviousHash != entries[i-1].Hash {
			return false
		}
		if entryHash(entry.PreviousHash, entry.Timestamp, entry.Payload) != entry.Hash {
			return false
		}
	}
	return true
}

func entryHash(prevHash, timestamp, payload string) string {
	sum := sha256.Sum256([]byte(prevHash + "|" + timestamp + "|" + payload))
	return hex.EncodeToString(sum[:])
}
