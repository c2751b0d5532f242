package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background())
	require.NoError(t, err)
	return store
}

func TestGetReturnsDefaultSession(t *testing.T) {
	store := newTestStore(t)

	sess := store.Get(1)
	assert.False(t, sess.Auth.IsAuthed)
	assert.Nil(t, sess.Flow)

	// idempotent: reading does not create visible state
	again := store.Get(1)
	assert.Equal(t, sess, again)
}

func TestSetGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	sess := Session{
		Auth: Auth{
			IsAuthed:    true,
			AccessToken: "tok",
			Email:       "u@x.y",
			User:        &User{ID: 7, Name: "U"},
		},
		Flow: &Flow{
			ID:          "flow-1",
			Kind:        FlowDeposit,
			Step:        StepDepositReceipt,
			PinAttempts: 2,
			Deposit: &DepositState{
				Amount:  10.5,
				Wallet:  &Wallet{ID: 1, Code: "XAF"},
				Receipt: &Attachment{Filename: "r.pdf", Mime: "application/pdf", Size: 3, Data: []byte{1, 2, 3}},
			},
		},
	}
	require.NoError(t, store.Set(42, sess))

	got := store.Get(42)
	assert.Equal(t, sess.Auth, got.Auth)
	require.NotNil(t, got.Flow)
	assert.Equal(t, FlowDeposit, got.Flow.Kind)
	assert.Equal(t, StepDepositReceipt, got.Flow.Step)
	assert.Equal(t, 2, got.Flow.PinAttempts)
	require.NotNil(t, got.Flow.Deposit.Receipt)
	assert.Equal(t, []byte{1, 2, 3}, got.Flow.Deposit.Receipt.Data)

	// sessions are isolated per chat
	other := store.Get(43)
	assert.False(t, other.Auth.IsAuthed)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(1, Session{Auth: Auth{IsAuthed: true}}))
	store.Clear(1)

	assert.False(t, store.Get(1).Auth.IsAuthed)

	// clearing a missing entry is fine
	store.Clear(99)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(1, Session{Auth: Auth{IsAuthed: true}}))
	require.NoError(t, store.Set(2, Session{Auth: Auth{IsAuthed: true}}))
	require.NoError(t, store.Reset())

	assert.False(t, store.Get(1).Auth.IsAuthed)
	assert.False(t, store.Get(2).Auth.IsAuthed)
}

func TestLockChatSerializesMutation(t *testing.T) {
	store := newTestStore(t)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			unlock := store.LockChat(7)
			defer unlock()

			sess := store.Get(7)
			sess.Flow = &Flow{Kind: FlowExchange, PinAttempts: sess.flowAttempts() + 1}
			_ = store.Set(7, sess)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, store.Get(7).Flow.PinAttempts)
}

func TestLockChatPrunesIdleEntries(t *testing.T) {
	store := newTestStore(t)

	for chatID := int64(0); chatID < 100; chatID++ {
		unlock := store.LockChat(chatID)
		unlock()
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.locks)
}

func TestLockChatKeepsEntryWhileContended(t *testing.T) {
	store := newTestStore(t)

	unlockA := store.LockChat(7)

	entered := make(chan struct{})
	released := make(chan struct{})
	go func() {
		unlockB := store.LockChat(7)
		close(entered)
		unlockB()
		close(released)
	}()

	// second holder is queued, the entry must survive the first unlock
	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		l, ok := store.locks[7]
		return ok && l.refs == 2
	}, time.Second, time.Millisecond)

	unlockA()
	<-entered
	<-released

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.locks)
}

func (s Session) flowAttempts() int {
	if s.Flow == nil {
		return 0
	}
	return s.Flow.PinAttempts
}
