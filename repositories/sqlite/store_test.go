package sqlite

import (
	"fmt"
	"groupchat/errors"
	"groupchat/repositories"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, limit int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "chat.db"), logs.GetLoggerFromLevel(slog.LevelDebug), limit)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func Test_Open_Requires_Path(t *testing.T) {
	_, err := Open("  ", logs.GetLoggerFromLevel(slog.LevelDebug), 0)
	require.Error(t, err)
}

func Test_Accounts_Lifecycle(t *testing.T) {
	req := require.New(t)
	accounts := openStore(t, 0).Accounts()

	req.NoError(accounts.CreateAccount("bob", "hash-b"))
	req.NoError(accounts.CreateAccount("alice", "hash-a"))
	req.ErrorIs(accounts.CreateAccount("alice", "again"), errors.ErrNicknameTaken)

	account, err := accounts.GetAccount("alice")
	req.NoError(err)
	req.Equal("hash-a", account.PasswordHash)
	req.False(account.Online)

	_, err = accounts.GetAccount("ghost")
	req.ErrorIs(err, errors.ErrAccountNotFound)
	req.ErrorIs(accounts.SetOnline("ghost", true), errors.ErrAccountNotFound)

	req.NoError(accounts.SetOnline("bob", true))
	list, err := accounts.ListAccounts()
	req.NoError(err)
	req.Len(list, 2)
	req.Equal("alice", list[0].Nickname)
	req.True(list[1].Online)

	flipped, err := accounts.ResetPresence()
	req.NoError(err)
	req.Equal(1, flipped)

	account, err = accounts.GetAccount("bob")
	req.NoError(err)
	req.False(account.Online)
}

func Test_History_Replay_Clear_And_Limit(t *testing.T) {
	req := require.New(t)
	history := openStore(t, 3).History()

	for i := range 5 {
		id, err := history.Append(repositories.DiskMessage{
			Nickname: "bob",
			Payload:  fmt.Sprintf("m%d", i+1),
			Type:     "text",
			At:       time.Now(),
		})
		req.NoError(err)
		req.Equal(int64(i+1), id)
	}

	messages, err := history.Replay("alice")
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("m3", messages[0].Payload)
	req.Equal("m5", messages[2].Payload)

	watermark, err := history.ClearFor("alice")
	req.NoError(err)
	req.Equal(int64(5), watermark)

	messages, err = history.Replay("alice")
	req.NoError(err)
	req.Empty(messages)

	_, err = history.Append(repositories.DiskMessage{Nickname: "bob", Payload: "m6", Type: "text", At: time.Now()})
	req.NoError(err)

	messages, err = history.Replay("alice")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("m6", messages[0].Payload)

	stored, err := history.Watermark("alice")
	req.NoError(err)
	req.Equal(int64(5), stored)

	stored, err = history.Watermark("bob")
	req.NoError(err)
	req.Zero(stored)
}

func Test_Clear_On_Empty_Log(t *testing.T) {
	req := require.New(t)
	history := openStore(t, 0).History()

	watermark, err := history.ClearFor("alice")
	req.NoError(err)
	req.Zero(watermark)

	watermark, err = history.ClearFor("alice")
	req.NoError(err)
	req.Zero(watermark)
}
