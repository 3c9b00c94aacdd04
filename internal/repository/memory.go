package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// memorySession keeps encoded sessions in process, so callers never share
// snapshots with the store. Entries expire like redis keys.
type memorySession struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time

	// sessions that never come back are only dropped by the sweep
	nextSweep time.Time
}

// NewMemorySessionRepository - in-process store; a zero ttl keeps sessions forever.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySession{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (that *memorySession) CreateOrUpdate(_ context.Context, session *entity.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	now := that.now()

	entry := memoryEntry{data: sessionJSON}
	if that.ttl > 0 {
		entry.expiresAt = now.Add(that.ttl)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.sweepLocked(now)
	that.sessions[session.ID] = entry

	return nil
}

func (that *memorySession) GetByID(_ context.Context, id string) (*entity.Session, error) {
	that.mu.RLock()
	entry, ok := that.sessions[id]
	that.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	if !entry.expiresAt.IsZero() && !that.now().Before(entry.expiresAt) {
		that.mu.Lock()
		delete(that.sessions, id)
		that.mu.Unlock()

		return nil, apperror.ErrSessionNotFound
	}

	var existingSession entity.Session
	if err := json.Unmarshal(entry.data, &existingSession); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &existingSession, nil
}

// sweepLocked - drops expired entries, at most once per ttl.
func (that *memorySession) sweepLocked(now time.Time) {
	if that.ttl <= 0 || now.Before(that.nextSweep) {
		return
	}

	for id, entry := range that.sessions {
		if !now.Before(entry.expiresAt) {
			delete(that.sessions, id)
		}
	}

	that.nextSweep = now.Add(that.ttl)
}
