package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newHistory(t *testing.T, limit int) *HistoryRepository {
	t.Helper()
	return NewHistoryRepository(openBadger(t), logs.GetLoggerFromLevel(slog.LevelDebug), limit)
}

func Test_Append_Assigns_Increasing_Ids(t *testing.T) {
	req := require.New(t)
	history := newHistory(t, 0)
	at := time.Now()

	var ids []int64
	for _, nickname := range []string{"alice", "bob", "carol"} {
		id, err := history.Append(DiskMessage{Nickname: nickname, Payload: "hi", Type: "text", At: at})
		req.NoError(err)
		ids = append(ids, id)
	}
	req.Equal([]int64{1, 2, 3}, ids)

	messages, err := history.Replay("dave")
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("alice", messages[0].Nickname)
	req.Equal("carol", messages[2].Nickname)
	req.Equal(at.UnixNano(), messages[0].At.UnixNano())
	req.Equal("text", messages[0].Type)
}

func Test_Replay_Is_Limited_To_Most_Recent(t *testing.T) {
	req := require.New(t)
	history := newHistory(t, 2)

	for i := range 5 {
		_, err := history.Append(DiskMessage{Nickname: "alice", Payload: fmt.Sprintf("m%d", i+1), Type: "text", At: time.Now()})
		req.NoError(err)
	}
	messages, err := history.Replay("alice")
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("m4", messages[0].Payload)
	req.Equal("m5", messages[1].Payload)
}

func Test_Clear_History_Only_Affects_Requester(t *testing.T) {
	req := require.New(t)
	history := newHistory(t, 0)

	for i := range 3 {
		_, err := history.Append(DiskMessage{Nickname: "bob", Payload: fmt.Sprintf("m%d", i+1), Type: "text", At: time.Now()})
		req.NoError(err)
	}
	watermark, err := history.ClearFor("alice")
	req.NoError(err)
	req.Equal(int64(3), watermark)

	messages, err := history.Replay("alice")
	req.NoError(err)
	req.Empty(messages)

	messages, err = history.Replay("bob")
	req.NoError(err)
	req.Len(messages, 3)

	id, err := history.Append(DiskMessage{Nickname: "bob", Payload: "m4", Type: "text", At: time.Now()})
	req.NoError(err)
	req.Equal(int64(4), id)

	messages, err = history.Replay("alice")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("m4", messages[0].Payload)
}

func Test_Clear_Empty_Log_Then_Clear_Again(t *testing.T) {
	req := require.New(t)
	history := newHistory(t, 0)

	watermark, err := history.ClearFor("alice")
	req.NoError(err)
	req.Zero(watermark)

	_, err = history.Append(DiskMessage{Nickname: "bob", Payload: "x", Type: "text", At: time.Now()})
	req.NoError(err)

	watermark, err = history.ClearFor("alice")
	req.NoError(err)
	req.Equal(int64(1), watermark)

	watermark, err = history.ClearFor("alice")
	req.NoError(err)
	req.Equal(int64(1), watermark)

	stored, err := history.Watermark("alice")
	req.NoError(err)
	req.Equal(int64(1), stored)

	stored, err = history.Watermark("nobody")
	req.NoError(err)
	req.Zero(stored)
}
