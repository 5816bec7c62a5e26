package runtime

import (
	"groupchat/domain"
	"groupchat/errors"
	"groupchat/mocks"
	"groupchat/repositories"
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newAccounts(t *testing.T, nicknames ...string) repositories.IAccountRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	accounts := repositories.NewAccountRepository(db)
	for _, nickname := range nicknames {
		require.NoError(t, accounts.CreateAccount(nickname, "hash"))
	}
	return accounts
}

func TestSessionRegistry_Join_Requires_Account(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	accounts := newAccounts(t)
	registry := NewSessionRegistry(log, accounts)

	// Given "alice" is not registered
	_, err := registry.Join(uuid.NewString(), "alice")
	req.ErrorIs(err, errors.ErrNotRegistered)

	// When she registers and joins again
	req.NoError(accounts.CreateAccount("alice", "hash"))
	users, err := registry.Join(uuid.NewString(), "alice")

	// Then she is listed online
	req.NoError(err)
	req.Equal([]domain.Presence{{Nickname: "alice", Online: true}}, users)
}

func TestSessionRegistry_Snapshot_Matches_Online_Flags(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	accounts := newAccounts(t, "alice", "bob", "carol")
	registry := NewSessionRegistry(log, accounts)

	connAlice, connBob := uuid.NewString(), uuid.NewString()
	_, err := registry.Join(connAlice, "alice")
	req.NoError(err)
	_, err = registry.Join(connBob, "bob")
	req.NoError(err)

	users, err := registry.Snapshot()
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, domain.OnlineNicknames(users))
	req.Len(users, 3)

	// When bob disconnects twice
	nickname, ok, err := registry.Leave(connBob)
	req.NoError(err)
	req.True(ok)
	req.Equal("bob", nickname)

	_, ok, err = registry.Leave(connBob)
	req.NoError(err)
	req.False(ok)

	// Then only alice stays online, in memory and in the store
	users, err = registry.Snapshot()
	req.NoError(err)
	req.Equal([]string{"alice"}, domain.OnlineNicknames(users))

	online, err := registry.IsOnline("bob")
	req.NoError(err)
	req.False(online)

	_, ok = registry.Nickname(connBob)
	req.False(ok)
	nickname, ok = registry.Nickname(connAlice)
	req.True(ok)
	req.Equal("alice", nickname)
}

func TestSessionRegistry_Rejoin_Policy(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewSessionRegistry(log, newAccounts(t, "alice", "bob"))

	conn := uuid.NewString()
	_, err := registry.Join(conn, "alice")
	req.NoError(err)

	// Same connection, same nickname: idempotent
	_, err = registry.Join(conn, "alice")
	req.NoError(err)

	// Same connection, other nickname
	_, err = registry.Join(conn, "bob")
	req.ErrorIs(err, errors.ErrAlreadyJoined)

	// Other connection, nickname already live
	_, err = registry.Join(uuid.NewString(), "alice")
	req.ErrorIs(err, errors.ErrNicknameInUse)

	nickname, ok := registry.Nickname(conn)
	req.True(ok)
	req.Equal("alice", nickname)
}

func TestSessionRegistry_Concurrent_Double_Join(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewSessionRegistry(log, newAccounts(t, "alice"))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.Join(uuid.NewString(), "alice")
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		req.ErrorIs(err, errors.ErrNicknameInUse)
	}
	req.Equal(1, joined)
	req.Len(registry.sessions, 1)
	req.Len(registry.owners, 1)
}

func TestSessionRegistry_Reconcile_Clears_Stale_Flags(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	accounts := newAccounts(t, "alice", "bob")
	req.NoError(accounts.SetOnline("alice", true))

	registry := NewSessionRegistry(log, accounts)
	flipped, err := registry.Reconcile()
	req.NoError(err)
	req.Equal(1, flipped)

	users, err := registry.Snapshot()
	req.NoError(err)
	req.Empty(domain.OnlineNicknames(users))
}

func TestSessionRegistry_Join_Storage_Failure_Leaves_No_Session(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockIAccountRepository(ctrl)

	accounts.EXPECT().GetAccount("alice").Return(repositories.Account{Nickname: "alice"}, nil)
	accounts.EXPECT().SetOnline("alice", true).Return(errors.ErrStorage)

	registry := NewSessionRegistry(log, accounts)
	conn := uuid.NewString()
	_, err := registry.Join(conn, "alice")
	req.ErrorIs(err, errors.ErrStorage)

	_, ok := registry.Nickname(conn)
	req.False(ok)
	req.Empty(registry.owners)
}

func TestSessionRegistry_Join_Leave_Race_Keeps_Maps_And_Flags_Paired(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	accounts := newAccounts(t, "alice")
	registry := NewSessionRegistry(log, accounts)

	for range 50 {
		first, second := uuid.NewString(), uuid.NewString()
		_, err := registry.Join(first, "alice")
		req.NoError(err)

		// The holder leaves while a second connection and a late rejoin race for alice
		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _, _ = registry.Leave(first)
		}()
		go func() {
			defer wg.Done()
			_, _ = registry.Join(second, "alice")
		}()
		go func() {
			defer wg.Done()
			_, _ = registry.Join(first, "alice")
		}()
		wg.Wait()

		registry.mu.Lock()
		req.Len(registry.owners, len(registry.sessions))
		for conn, nickname := range registry.sessions {
			req.Equal(conn, registry.owners[nickname])
		}
		_, owned := registry.owners["alice"]
		registry.mu.Unlock()

		account, err := accounts.GetAccount("alice")
		req.NoError(err)
		req.Equal(owned, account.Online)

		_, _, _ = registry.Leave(first)
		_, _, _ = registry.Leave(second)
	}
}

func TestSessionRegistry_Sweep_Heals_Failed_Leave(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockIAccountRepository(ctrl)
	registry := NewSessionRegistry(log, accounts)
	connAlice, connBob := uuid.NewString(), uuid.NewString()

	gomock.InOrder(
		accounts.EXPECT().GetAccount("alice").Return(repositories.Account{Nickname: "alice"}, nil),
		accounts.EXPECT().SetOnline("alice", true).Return(nil),
		accounts.EXPECT().ListAccounts().Return([]repositories.Account{{Nickname: "alice", Online: true}}, nil),
		accounts.EXPECT().GetAccount("bob").Return(repositories.Account{Nickname: "bob"}, nil),
		accounts.EXPECT().SetOnline("bob", true).Return(nil),
		accounts.EXPECT().ListAccounts().Return([]repositories.Account{
			{Nickname: "alice", Online: true}, {Nickname: "bob", Online: true},
		}, nil),
		// Given alice's leave fails to persist
		accounts.EXPECT().SetOnline("alice", false).Return(errors.ErrStorage),
		// When the sweep runs, only alice is cleared since bob is still connected
		accounts.EXPECT().ListAccounts().Return([]repositories.Account{
			{Nickname: "alice", Online: true}, {Nickname: "bob", Online: true},
		}, nil),
		accounts.EXPECT().SetOnline("alice", false).Return(nil),
	)

	_, err := registry.Join(connAlice, "alice")
	req.NoError(err)
	_, err = registry.Join(connBob, "bob")
	req.NoError(err)

	nickname, ok, err := registry.Leave(connAlice)
	req.ErrorIs(err, errors.ErrStorage)
	req.True(ok)
	req.Equal("alice", nickname)

	cleared, err := registry.Sweep()
	req.NoError(err)
	req.Equal(1, cleared)
}

func TestSessionRegistry_Sweep_Ignores_Owned_Nicknames(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	accounts := newAccounts(t, "alice", "bob")
	registry := NewSessionRegistry(log, accounts)

	_, err := registry.Join(uuid.NewString(), "alice")
	req.NoError(err)
	req.NoError(accounts.SetOnline("bob", true))

	cleared, err := registry.Sweep()
	req.NoError(err)
	req.Equal(1, cleared)

	users, err := registry.Snapshot()
	req.NoError(err)
	req.Equal([]string{"alice"}, domain.OnlineNicknames(users))
}
