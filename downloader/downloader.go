// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package downloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/chaincore/ethwire/ethcore"
	"github.com/chaincore/ethwire/protocol"
	"github.com/chaincore/ethwire/session"
)

// HashFunc computes the hash a header's children are expected to link
// to via ParentHash. The default is the header's own stock Hash(); a
// chain running ibftlegacy consensus instead links on SealHash (the
// signature-stripped hash spec.md §3 mandates), so Downloader takes
// this as an injected collaborator per spec.md §9's design note rather
// than hardcoding types.Header.Hash.
type HashFunc func(*types.Header) (common.Hash, error)

func defaultHashFunc(h *types.Header) (common.Hash, error) {
	return h.Hash(), nil
}

// PeerPool is the subset of session.Registry the downloader needs:
// read-only access to the currently Active peer set. The downloader
// acquires a peer by reference for the duration of one request and
// never retains it afterward, per spec.md §3's ownership note.
type PeerPool interface {
	ActiveSnapshot() []*session.Session
}

// Config bounds a Downloader's retry, timeout and concurrency
// behavior. Zero values fall back to the defaults named in spec.md §6.
type Config struct {
	RequestTimeout time.Duration
	MaxRetries     uint16
	Parallelism    uint16

	// HashFunc computes parent-linkage hashes; defaults to
	// types.Header.Hash. Chains running ibftlegacy consensus should
	// pass ibftlegacy.SealHash instead.
	HashFunc HashFunc
}

const (
	defaultRequestTimeout = 8 * time.Second
	defaultMaxRetries     = 3
	defaultParallelism    = 4
)

// Downloader issues header-range requests against a peer pool and
// validates the responses, per spec.md §4.F.
type Downloader struct {
	pool PeerPool
	cfg  Config

	mu   sync.Mutex
	busy map[uint64]bool // session IDs currently serving a Fetch, so FetchMany's concurrent ranges don't collide on eth/63's one-outstanding-request-per-session limit
}

// New builds a Downloader over the given peer pool.
func New(pool PeerPool, cfg Config) *Downloader {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = defaultParallelism
	}
	if cfg.HashFunc == nil {
		cfg.HashFunc = defaultHashFunc
	}
	return &Downloader{pool: pool, cfg: cfg, busy: make(map[uint64]bool)}
}

// RangeRequest names one span of ancestors to fetch, as accepted by
// FetchMany.
type RangeRequest struct {
	Reference *types.Header
	Count     uint32
}

// FetchMany runs several Fetch calls concurrently, bounded by
// cfg.Parallelism in-flight requests at a time, the way the retrieval
// pack's state-sync leaf fetchers overlap multiple outstanding
// requests instead of fetching ranges one at a time. The first failing
// range cancels the rest via the shared errgroup context.
func (d *Downloader) FetchMany(ctx context.Context, reqs []RangeRequest) ([][]*types.Header, error) {
	results := make([][]*types.Header, len(reqs))
	eg, egCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, d.cfg.Parallelism)

submit:
	for i, req := range reqs {
		i, req := i, req
		select {
		case sem <- struct{}{}:
		case <-egCtx.Done():
			break submit
		}
		eg.Go(func() error {
			defer func() { <-sem }()
			headers, err := d.Fetch(egCtx, req.Reference, req.Count)
			if err != nil {
				return fmt.Errorf("range starting at %d: %w", req.Reference.Number.Uint64(), err)
			}
			results[i] = headers
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Fetch returns count headers whose numbers are
// [reference.Number-count, reference.Number-1], linked by parent hash
// and anchored to reference.ParentHash, per spec.md §4.F. It retries
// against a different peer (when more than one is available) up to
// cfg.MaxRetries times before returning ethcore.ErrMaxRetriesReached.
// Cancelling ctx abandons any in-flight request and returns
// ethcore.ErrCancelled.
func (d *Downloader) Fetch(ctx context.Context, reference *types.Header, count uint32) ([]*types.Header, error) {
	if count == 0 {
		return nil, errors.New("downloader: count must be > 0")
	}
	if reference.Number.Uint64() < uint64(count) {
		return nil, fmt.Errorf("downloader: reference number %d below requested count %d", reference.Number.Uint64(), count)
	}

	task := &Task{Reference: reference, Count: count, AttemptsRemaining: d.cfg.MaxRetries}

	var lastPeer *session.Session
	defer func() {
		if lastPeer != nil {
			d.releasePeer(lastPeer)
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil, ethcore.ErrCancelled
		}

		peer, err := d.acquirePeer(lastPeer)
		if err != nil {
			return nil, err
		}
		if lastPeer != nil {
			d.releasePeer(lastPeer)
		}
		lastPeer = peer

		headers, err := d.attempt(ctx, peer, task)
		if err == nil {
			task.Received = headers
			return headers, nil
		}

		if ctx.Err() != nil {
			return nil, ethcore.ErrCancelled
		}

		if task.AttemptsRemaining == 0 {
			log.Warn("header download exhausted retries", "reference", reference.Number.Uint64(), "count", count, "err", err)
			return nil, ethcore.ErrMaxRetriesReached
		}
		task.AttemptsRemaining--
		log.Debug("header download attempt failed, retrying",
			"reference", reference.Number.Uint64(), "count", count, "attempts_remaining", task.AttemptsRemaining, "err", err)
	}
}

// attempt issues a single reversed GET_BLOCK_HEADERS request and
// validates the response per spec.md §4.F rules 1-2.
func (d *Downloader) attempt(ctx context.Context, peer *session.Session, task *Task) ([]*types.Header, error) {
	reqCtx, cancel := context.WithTimeout(ctx, d.cfg.RequestTimeout)
	defer cancel()

	req := &protocol.GetBlockHeadersPacket{
		OriginNumber: task.Reference.Number.Uint64() - 1,
		Amount:       uint64(task.Count),
		Skip:         0,
		Reverse:      true,
	}

	raw, err := peer.RequestHeaders(reqCtx, req)
	if err != nil {
		if errors.Is(err, ethcore.ErrRequestTimeout) || reqCtx.Err() != nil {
			return nil, ethcore.ErrRequestTimeout
		}
		return nil, err
	}

	// Rule 1: a strictly-shorter response (including the degenerate
	// reference-only case) is a failed attempt.
	if len(raw) != int(task.Count) {
		return nil, fmt.Errorf("%w: got %d headers, want %d", ethcore.ErrLinkageViolation, len(raw), task.Count)
	}

	// raw is in descending-number order (the reversed request); reverse
	// it into ascending order before validating linkage.
	result := make([]*types.Header, task.Count)
	for i, h := range raw {
		result[len(result)-1-i] = h
	}

	// Rule 2: pairwise parent-hash linkage, plus the anchor back to
	// the reference header, via the injected hash function.
	for i := 1; i < len(result); i++ {
		hash, err := d.cfg.HashFunc(result[i-1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ethcore.ErrLinkageViolation, err)
		}
		if hash != result[i].ParentHash {
			return nil, ethcore.ErrLinkageViolation
		}
	}
	tailHash, err := d.cfg.HashFunc(result[len(result)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ethcore.ErrLinkageViolation, err)
	}
	if task.Reference.ParentHash != tailHash {
		return nil, ethcore.ErrLinkageViolation
	}

	return result, nil
}

// acquirePeer prefers a peer other than exclude when more than one is
// available, per spec.md §4.F rule 3, and skips any peer already
// serving a concurrent Fetch from this same Downloader (FetchMany runs
// several ranges at once, and eth/63 allows only one outstanding
// request per session). Falls back to a busy peer only when no other
// session is currently idle.
func (d *Downloader) acquirePeer(exclude *session.Session) (*session.Session, error) {
	peers := d.pool.ActiveSnapshot()
	if len(peers) == 0 {
		return nil, ethcore.ErrNoPeerAvailable
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pick := func(skipBusy bool) *session.Session {
		for _, p := range peers {
			if exclude != nil && p.ID() == exclude.ID() {
				continue
			}
			if skipBusy && d.busy[p.ID()] {
				continue
			}
			return p
		}
		return nil
	}

	p := pick(true)
	if p == nil {
		p = pick(false)
	}
	if p == nil {
		p = peers[0]
	}
	d.busy[p.ID()] = true
	return p, nil
}

// releasePeer marks a peer idle again, making it eligible for the next
// acquirePeer call.
func (d *Downloader) releasePeer(peer *session.Session) {
	d.mu.Lock()
	delete(d.busy, peer.ID())
	d.mu.Unlock()
}
