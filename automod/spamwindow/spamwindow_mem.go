package spamwindow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemStore keeps windows in process memory, sharded by (guild, author) key.
// Operations on different keys never contend; operations on the same key are
// linearized by a per-window mutex.
type MemStore struct {
	windows *xsync.MapOf[string, *window]
}

type window struct {
	mu          sync.Mutex
	entries     map[Kind][]time.Time
	lastContent string
	lastAt      time.Time
	touched     time.Time
	// set by Sweep while holding mu; a dead window has been removed from the
	// map and must not be reused
	dead bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		windows: xsync.NewMapOf[string, *window](),
	}
}

func (s *MemStore) getWindow(guildID, authorID string, now time.Time) *window {
	key := windowKey(guildID, authorID)
	for {
		w, _ := s.windows.LoadOrCompute(key, func() *window {
			return &window{entries: make(map[Kind][]time.Time)}
		})
		w.mu.Lock()
		if w.dead {
			// lost a race with Sweep; the key is gone, compute a fresh window
			w.mu.Unlock()
			continue
		}
		w.touched = now
		return w
	}
}

func (s *MemStore) RecordAndCount(ctx context.Context, guildID, authorID string, kind Kind, n int, interval time.Duration, now time.Time) (int, error) {
	w := s.getWindow(guildID, authorID, now)
	defer w.mu.Unlock()

	entries := w.entries[kind]
	for i := 0; i < n; i++ {
		entries = append(entries, now)
	}

	// lazy eviction: drop everything older than the interval
	cutoff := now.Add(-interval)
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.entries[kind] = kept
	return len(kept), nil
}

func (s *MemStore) SwapLastMessage(ctx context.Context, guildID, authorID, content string, ttl time.Duration, now time.Time) (string, error) {
	w := s.getWindow(guildID, authorID, now)
	defer w.mu.Unlock()

	prev := w.lastContent
	// same boundary as eviction in RecordAndCount: an entry exactly ttl old
	// is already stale
	if !w.lastAt.After(now.Add(-ttl)) {
		prev = ""
	}
	w.lastContent = content
	w.lastAt = now
	return prev, nil
}

// Sweep drops windows that have not been touched within maxIdle. Without it
// the map would hold one window per (guild, author) pair ever seen.
func (s *MemStore) Sweep(now time.Time, maxIdle time.Duration) {
	cutoff := now.Add(-maxIdle)
	s.windows.Range(func(key string, w *window) bool {
		w.mu.Lock()
		if !w.dead && w.touched.Before(cutoff) {
			w.dead = true
			s.windows.Delete(key)
		}
		w.mu.Unlock()
		return true
	})
}

// RunJanitor sweeps idle windows on a fixed cadence until ctx is cancelled.
func (s *MemStore) RunJanitor(ctx context.Context, every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now, maxIdle)
		}
	}
}

func (s *MemStore) RemoveGuild(ctx context.Context, guildID string) error {
	prefix := guildID + "/"
	s.windows.Range(func(key string, _ *window) bool {
		if strings.HasPrefix(key, prefix) {
			s.windows.Delete(key)
		}
		return true
	})
	return nil
}
