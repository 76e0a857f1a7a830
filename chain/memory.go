// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
)

// Memory is an in-memory Reader used by tests and by the single-node
// dev-mode wiring in cmd/ethwired. Production wiring points Reader at
// the real chain store instead; that store is an external collaborator
// (spec.md §1) this module does not implement.
//
// Grounded on graft/coreth/sync/blocksync/syncer.go's use of
// rawdb.ReadBlock/WriteBlock as the chain-store access pattern; Memory
// plays the same role without the on-disk database.
type Memory struct {
	mu       sync.RWMutex
	headers  map[common.Hash]*types.Header
	byNumber map[uint64]common.Hash
	bodies   map[common.Hash]*types.Body
	receipts map[common.Hash][]*types.Receipt
	tds      map[common.Hash]*uint256.Int

	genesis common.Hash
	head    common.Hash

	numberCache *lru.Cache[uint64, common.Hash]

	watchers []chan AddedEvent
}

// NewMemory builds an empty in-memory chain store. cacheSize bounds
// the optional header-by-number memo; pass 0 to disable it.
func NewMemory(cacheSize int) *Memory {
	m := &Memory{
		headers:  make(map[common.Hash]*types.Header),
		byNumber: make(map[uint64]common.Hash),
		bodies:   make(map[common.Hash]*types.Body),
		receipts: make(map[common.Hash][]*types.Receipt),
		tds:      make(map[common.Hash]*uint256.Int),
	}
	if cacheSize > 0 {
		c, _ := lru.New[uint64, common.Hash](cacheSize)
		m.numberCache = c
	}
	return m
}

// Insert adds a header (and optional body/receipts) to the store,
// updating the canonical head if number exceeds the current head's.
func (m *Memory) Insert(header *types.Header, body *types.Body, receipts []*types.Receipt, td *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := header.Hash()
	m.headers[hash] = header
	m.byNumber[header.Number.Uint64()] = hash
	if body != nil {
		m.bodies[hash] = body
	}
	if receipts != nil {
		m.receipts[hash] = receipts
	}
	if td != nil {
		m.tds[hash] = td
	}
	if m.numberCache != nil {
		m.numberCache.Add(header.Number.Uint64(), hash)
	}

	if header.Number.Uint64() == 0 {
		m.genesis = hash
	}
	if head, ok := m.headers[m.head]; !ok || header.Number.Uint64() > head.Number.Uint64() {
		m.head = hash
	}

	bb := bodyOrEmpty(body)
	m.broadcast(AddedEvent{Block: types.NewBlockWithHeader(header).WithBody(bb.Transactions, bb.Uncles), Receipts: receipts, TotalDiff: td})
}

func bodyOrEmpty(b *types.Body) types.Body {
	if b == nil {
		return types.Body{}
	}
	return *b
}

func (m *Memory) broadcast(ev AddedEvent) {
	for _, ch := range m.watchers {
		select {
		case ch <- ev:
		default:
			// Slow watcher; AddedEvent delivery is best-effort for the
			// in-memory test adapter. Production watchers own their own
			// bounded-queue drop policy (see observer.Bridge).
		}
	}
}

// Watch registers a new event channel. Only intended for test usage;
// each call allocates a small buffered channel that is never closed.
func (m *Memory) Watch() <-chan AddedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan AddedEvent, 16)
	m.watchers = append(m.watchers, ch)
	return ch
}

func (m *Memory) HeaderByHash(hash common.Hash) (*types.Header, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.headers[hash]
	return h, ok
}

// HeaderByNumber consults numberCache before falling back to the
// byNumber index, refreshing the cache on a miss.
func (m *Memory) HeaderByNumber(number uint64) (*types.Header, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.numberCache != nil {
		if hash, ok := m.numberCache.Get(number); ok {
			h, ok := m.headers[hash]
			return h, ok
		}
	}

	hash, ok := m.byNumber[number]
	if !ok {
		return nil, false
	}
	if m.numberCache != nil {
		m.numberCache.Add(number, hash)
	}
	h, ok := m.headers[hash]
	return h, ok
}

func (m *Memory) BodyByHash(hash common.Hash) (*types.Body, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bodies[hash]
	return b, ok
}

func (m *Memory) ReceiptsByHash(hash common.Hash) ([]*types.Receipt, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.receipts[hash]
	return r, ok
}

func (m *Memory) ChainHead() (common.Hash, *types.Header, *uint256.Int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.head, m.headers[m.head], m.tds[m.head]
}

func (m *Memory) GenesisHash() common.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.genesis
}

var (
	_ Reader  = (*Memory)(nil)
	_ Watcher = (*Memory)(nil)
)
