package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"afripay-text-bot/internal/logger"

	"github.com/allegro/bigcache/v3"
)

// Store keeps every chat's session in a bounded in-memory cache. Values are
// JSON-encoded; a missing entry decodes to the default unauthenticated
// session. Mutation must happen inside the chat's critical section, see
// LockChat.
type Store struct {
	cache *bigcache.BigCache

	mu    sync.Mutex
	locks map[int64]*chatLock
}

// chatLock is reference counted so idle entries can be pruned: the map holds
// only chats with a holder or waiter, not every chat ever seen.
type chatLock struct {
	sync.Mutex
	refs int
}

// Sessions idle longer than this are evicted; a chat that comes back simply
// starts from the default state again.
const sessionTTL = 24 * time.Hour

func NewStore(ctx context.Context) (*Store, error) {
	cache, err := bigcache.New(ctx, bigcache.DefaultConfig(sessionTTL))
	if err != nil {
		return nil, err
	}
	return &Store{
		cache: cache,
		locks: map[int64]*chatLock{},
	}, nil
}

// LockChat enters the chat's critical section and returns the unlock func.
// Every get-mutate-set pair on one chat must run under it; the dispatcher
// holds it for the whole handling of a message. The last unlock of a chat
// drops its lock entry again.
func (s *Store) LockChat(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &chatLock{}
		s.locks[chatID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, chatID)
		}
		s.mu.Unlock()
	}
}

// Get returns the chat's session, creating the default one on first
// reference. Idempotent: two Gets without an intervening Set see the same
// field values.
func (s *Store) Get(chatID int64) Session {
	b, err := s.cache.Get(key(chatID))
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			logger.Warning("Error while reading session state", err)
		}
		return Session{Auth: Auth{IsAuthed: false}}
	}

	var sess Session
	if err = json.Unmarshal(b, &sess); err != nil {
		logger.Warning("Error while decoding session state", err)
		return Session{Auth: Auth{IsAuthed: false}}
	}
	return sess
}

// Set replaces the chat's stored session.
func (s *Store) Set(chatID int64, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		logger.Warning("Error while encoding session state", err)
		return err
	}

	if err = s.cache.Set(key(chatID), data); err != nil {
		logger.Warning("Error while writing session state", err)
		return err
	}
	return nil
}

// Clear drops the chat's session entirely.
func (s *Store) Clear(chatID int64) {
	if err := s.cache.Delete(key(chatID)); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		logger.Warning("Error while clearing session state", err)
	}
}

// Reset wipes every session. Test teardown hook.
func (s *Store) Reset() error {
	return s.cache.Reset()
}

func key(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
