package services

import (
	"context"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/ports"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const reloadConcurrency = 4

// BoardSession holds the latest board for one query.
//
// Every Reload takes a new sequence number. A load that finishes after a
// newer one was started is dropped unless there is no board at all yet, so
// readers never see an older board replace a newer one. Boards are swapped
// whole, never patched.
type BoardSession struct {
	query   BoardQuery
	backend ports.FleetBackend
	seq     atomic.Uint64
	current atomic.Pointer[Board]

	// Replaced in tests.
	load func(ctx context.Context, backend ports.FleetBackend, q BoardQuery) (*Board, error)
}

func NewBoardSession(backend ports.FleetBackend, q BoardQuery) *BoardSession {
	return &BoardSession{query: q, backend: backend, load: LoadBoard}
}

func (s *BoardSession) Query() BoardQuery { return s.query }

// Current returns the latest board, or nil before the first successful reload.
func (s *BoardSession) Current() *Board { return s.current.Load() }

// Reload loads a fresh board. It returns (nil, nil) when the result went stale
// while loading; the newer reload wins. A stale result is still stored when
// the session has no board yet, so the first readers are not left empty.
func (s *BoardSession) Reload(ctx context.Context) (*Board, error) {
	seq := s.seq.Add(1)

	b, err := s.load(ctx, s.backend, s.query)
	if err != nil {
		return nil, fmt.Errorf("reload board %s: %w", s.query.Key(), err)
	}
	b.Seq = seq

	for {
		prev := s.current.Load()
		if prev != nil && prev.Seq > seq {
			return nil, nil
		}
		stale := s.seq.Load() != seq
		if stale && prev != nil {
			return nil, nil
		}
		if s.current.CompareAndSwap(prev, b) {
			if stale {
				return nil, nil
			}
			return b, nil
		}
	}
}

// Get returns the current board, loading one if there is none yet.
func (s *BoardSession) Get(ctx context.Context) (*Board, error) {
	if b := s.Current(); b != nil {
		return b, nil
	}
	b, err := s.Reload(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		// Superseded; the board stored by either reload serves.
		if cur := s.Current(); cur != nil {
			return cur, nil
		}
		return nil, fmt.Errorf("reload board %s: superseded without a result", s.query.Key())
	}
	return b, nil
}

// Encodes a board for the push feed.
type BoardEncoder func(b *Board) ([]byte, error)

// BoardWatcher owns the board sessions and refreshes them periodically,
// publishing every fresh board.
type BoardWatcher struct {
	backend   ports.FleetBackend
	publisher ports.BoardPublisher
	encode    BoardEncoder
	interval  time.Duration

	mu       sync.Mutex
	sessions map[string]*BoardSession
}

func NewBoardWatcher(backend ports.FleetBackend, publisher ports.BoardPublisher, encode BoardEncoder, interval time.Duration) *BoardWatcher {
	return &BoardWatcher{
		backend:   backend,
		publisher: publisher,
		encode:    encode,
		interval:  interval,
		sessions:  make(map[string]*BoardSession),
	}
}

// Session returns the open session for q, or nil.
func (w *BoardWatcher) Session(q BoardQuery) *BoardSession {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessions[q.Key()]
}

// openSession returns the session for q, creating it on first use. Only
// known dispatch groups get a session.
func (w *BoardWatcher) openSession(ctx context.Context, q BoardQuery) (*BoardSession, error) {
	if s := w.Session(q); s != nil {
		return s, nil
	}

	if q.DispatchGroupID != "" {
		groups, err := w.backend.ListDispatchGroups(ctx)
		if err != nil {
			return nil, fmt.Errorf("board %s: list dispatch groups: %w", q.Key(), err)
		}
		if !slices.ContainsFunc(groups, func(g *domain.DispatchGroup) bool { return g != nil && g.ID == q.DispatchGroupID }) {
			return nil, fmt.Errorf("board: %q: %w", q.DispatchGroupID, ErrUnknownDispatchGroup)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.sessions[q.Key()]
	if !ok {
		s = NewBoardSession(w.backend, q)
		w.sessions[q.Key()] = s
	}
	return s, nil
}

// Board returns the current board for q, reloading it first when refresh is set.
func (w *BoardWatcher) Board(ctx context.Context, q BoardQuery, refresh bool) (*Board, error) {
	if !q.Tab.Valid() {
		return nil, fmt.Errorf("board: tab %q: %w", q.Tab, ErrUnknownTab)
	}
	s, err := w.openSession(ctx, q)
	if err != nil {
		return nil, err
	}
	if refresh {
		b, err := s.Reload(ctx)
		if err != nil {
			return nil, err
		}
		if b != nil {
			w.publish(b)
			return b, nil
		}
	}
	return s.Get(ctx)
}

// ReloadAll refreshes every session concurrently. Failures are logged and do
// not stop the others. Reloads outlive a cancelled ctx so a caller going away
// does not leave boards half refreshed.
func (w *BoardWatcher) ReloadAll(ctx context.Context) {
	w.mu.Lock()
	sessions := make([]*BoardSession, 0, len(w.sessions))
	for _, s := range w.sessions {
		sessions = append(sessions, s)
	}
	w.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(reloadConcurrency)
	for _, s := range sessions {
		g.Go(func() error {
			b, err := s.Reload(ctx)
			if err != nil {
				zap.L().Error("board reload failed", zap.String("board", s.Query().Key()), zap.Error(err))
				return nil
			}
			if b != nil {
				w.publish(b)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Run refreshes all sessions every interval until ctx is done.
func (w *BoardWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			zap.L().Info("refreshing dispatch boards", zap.Duration("interval", w.interval))
			w.ReloadAll(ctx)
		}
	}
}

func (w *BoardWatcher) publish(b *Board) {
	if w.publisher == nil || w.encode == nil {
		return
	}
	payload, err := w.encode(b)
	if err != nil {
		zap.L().Error("encode board failed", zap.String("board", b.Query.Key()), zap.Error(err))
		return
	}
	w.publisher.Publish(b.Query.Key(), payload)
}
