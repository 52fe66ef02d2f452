// Package abicache memoizes analysis results by code hash and runs batches of
// independent analyses in parallel.
package abicache

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/crypto"

	"abiscan/internal/analysis"
)

// Entry is the analysis of one bytecode. It is shared between callers and
// must not be modified.
type Entry struct {
	CodeHash common.Hash
	Program  *analysis.Program
	ABI      analysis.ABI
}

// Cache is safe for concurrent use.
type Cache struct {
	history int
	entries *lru.Cache[common.Hash, *Entry]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New returns a cache holding up to size results. history is the scanner
// lookback window.
func New(size, history int) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{
		history: history,
		entries: lru.NewCache[common.Hash, *Entry](size),
	}
}

// Analyze returns the analysis of code, from the cache if the same code was
// seen recently.
func (c *Cache) Analyze(code []byte) *Entry {
	hash := crypto.Keccak256Hash(code)
	if e, ok := c.entries.Get(hash); ok {
		c.hits.Add(1)
		return e
	}
	c.misses.Add(1)

	p := analysis.DisasmWithHistory(code, c.history)
	e := &Entry{
		CodeHash: hash,
		Program:  p,
		ABI:      analysis.ABIFromProgram(p),
	}
	c.entries.Add(hash, e)
	return e
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

// Stats returns the hit and miss counts so far.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
