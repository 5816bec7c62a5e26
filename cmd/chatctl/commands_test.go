package main

import (
	"bytes"
	"groupchat/repositories"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderAccounts(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	renderAccounts(&out, []repositories.Account{
		{Nickname: "alice", Online: true, CreatedAt: time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)},
		{Nickname: "bob"},
	}, false)

	req.Contains(out.String(), "alice")
	req.Contains(out.String(), "yes")
	req.Contains(out.String(), "bob")
	req.Contains(out.String(), "2024-10-01 08:00:00")
}

func TestTruncate(t *testing.T) {
	req := require.New(t)
	req.Equal("短消息", truncate("短消息", 5))
	req.Equal("abc…", truncate("abcdef", 3))
}

func TestCommands_Against_Sqlite_Store(t *testing.T) {
	req := require.New(t)
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_FILEPATH", filepath.Join(t.TempDir(), "chat.db"))
	t.Setenv("CHATCTL_COLOURS", "false")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"clear", "--nickname", "alice"})
	req.NoError(rootCmd.Execute())
	req.Contains(out.String(), "history of alice cleared up to message 0")

	out.Reset()
	rootCmd.SetArgs([]string{"reset-presence"})
	req.NoError(rootCmd.Execute())
	req.Contains(out.String(), "0 account(s) reset to offline")

	out.Reset()
	rootCmd.SetArgs([]string{"history", "--nickname", "alice"})
	req.NoError(rootCmd.Execute())
	req.Contains(out.String(), "alice watermark=0 messages=0")
}
