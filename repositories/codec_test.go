package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func Test_Unmarshal_Message_Skips_Unknown_Fields(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := marshalMessage(DiskMessage{ID: 7, Nickname: "alice", Payload: "晴", Type: "weather", At: at})
	b = protowire.AppendTag(b, 99, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 42)

	message, err := unmarshalMessage(b, time.UTC)
	req.NoError(err)
	req.Equal(int64(7), message.ID)
	req.Equal("晴", message.Payload)
	req.Equal("weather", message.Type)
	req.True(at.Equal(message.At))
}

func Test_Unmarshal_Truncated_Value(t *testing.T) {
	req := require.New(t)
	b := marshalAccount(Account{Nickname: "alice", PasswordHash: "hash"})

	_, err := unmarshalAccount(b[:len(b)-2])
	req.Error(err)
}
