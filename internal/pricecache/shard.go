package pricecache

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/marketcore/core/internal/domain"
)

// shardCount is the number of independent locks over the per-symbol map.
// Readers and writers of different symbols proceed without contention;
// readers and writers of the same symbol are briefly serialized.
const shardCount = 32

// symbolState is the per-symbol aggregation state. All mutation of a symbolState happens while its shard's lock is
// held; mutation never performs I/O or allocation-heavy work.
type symbolState struct {
	sources        map[domain.SourceIdentity]domain.SourcePrice
	lastAggregated *float64
	lastEmitAt     time.Time
}

type shard struct {
	mu      sync.RWMutex
	symbols map[string]*symbolState
}

type shardedMap struct {
	shards [shardCount]*shard
}

func newShardedMap() *shardedMap {
	sm := &shardedMap{}
	for i := range sm.shards {
		sm.shards[i] = &shard{symbols: make(map[string]*symbolState)}
	}
	return sm
}

func (sm *shardedMap) shardFor(symbol string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return sm.shards[h.Sum32()%shardCount]
}

// withSymbol runs fn holding the write lock for symbol's shard, creating the
// symbolState on first use. The caller must not hold any read handle across
// this call -- clone-out, drop, then insert.
func (sm *shardedMap) withSymbol(symbol string, fn func(*symbolState)) {
	s := sm.shardFor(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.symbols[symbol]
	if !ok {
		st = &symbolState{sources: make(map[domain.SourceIdentity]domain.SourcePrice)}
		s.symbols[symbol] = st
	}
	fn(st)
}

// readSymbol returns a snapshot copy of the symbol's state, or false if the
// symbol has never been written. The returned value is safe to use after the
// shard lock is released since it is a copy, not a live reference.
func (sm *shardedMap) readSymbol(symbol string) (symbolState, bool) {
	s := sm.shardFor(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.symbols[symbol]
	if !ok {
		return symbolState{}, false
	}
	cp := symbolState{
		sources:    make(map[domain.SourceIdentity]domain.SourcePrice, len(st.sources)),
		lastEmitAt: st.lastEmitAt,
	}
	for k, v := range st.sources {
		cp.sources[k] = v
	}
	if st.lastAggregated != nil {
		v := *st.lastAggregated
		cp.lastAggregated = &v
	}
	return cp, true
}
