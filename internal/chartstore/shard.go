package chartstore

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// symbolSeries holds the three fixed-resolution series for one symbol.
type symbolSeries struct {
	mu     sync.RWMutex
	series map[Resolution]*timeSeries
}

func newSymbolSeries() *symbolSeries {
	ss := &symbolSeries{series: make(map[Resolution]*timeSeries, len(allResolutions))}
	for _, r := range allResolutions {
		ss.series[r] = newTimeSeries(r)
	}
	return ss
}

type shard struct {
	mu      sync.RWMutex
	symbols map[string]*symbolSeries
}

type shardedMap struct {
	shards [shardCount]*shard
}

func newShardedMap() *shardedMap {
	sm := &shardedMap{}
	for i := range sm.shards {
		sm.shards[i] = &shard{symbols: make(map[string]*symbolSeries)}
	}
	return sm
}

func (sm *shardedMap) shardFor(symbol string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return sm.shards[h.Sum32()%shardCount]
}

// getOrCreate returns the symbolSeries for symbol, creating it under the
// shard's write lock if absent.
func (sm *shardedMap) getOrCreate(symbol string) *symbolSeries {
	s := sm.shardFor(symbol)
	s.mu.RLock()
	ss, ok := s.symbols[symbol]
	s.mu.RUnlock()
	if ok {
		return ss
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ss, ok = s.symbols[symbol]; ok {
		return ss
	}
	ss = newSymbolSeries()
	s.symbols[symbol] = ss
	return ss
}

// get returns the symbolSeries for symbol, or nil if unknown. Reads never
// allocate a new entry.
func (sm *shardedMap) get(symbol string) *symbolSeries {
	s := sm.shardFor(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.symbols[symbol]
}

// allSymbols returns every known symbol name, used by the persistence saver.
func (sm *shardedMap) allSymbols() []string {
	var out []string
	for _, s := range sm.shards {
		s.mu.RLock()
		for sym := range s.symbols {
			out = append(out, sym)
		}
		s.mu.RUnlock()
	}
	return out
}
