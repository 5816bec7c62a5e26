package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeNews_Empty_Digest(t *testing.T) {
	req := require.New(t)
	payload, err := EncodeNews(nil)
	req.NoError(err)
	req.Equal("[]", payload)

	items, err := DecodeNews(payload)
	req.NoError(err)
	req.Empty(items)
}

func TestEncodeMusic_Field_Names(t *testing.T) {
	req := require.New(t)
	payload, err := EncodeMusic(MusicTrack{SongName: "晴天", Artist: "周杰伦", PlayURL: "https://x/1.mp3"})
	req.NoError(err)
	req.JSONEq(`{"song_name":"晴天","artist":"周杰伦","play_url":"https://x/1.mp3","is_unplayable":false}`, payload)
}

func TestDecodeMusic_Rejects_Garbage(t *testing.T) {
	_, err := DecodeMusic("not json")
	require.Error(t, err)
}

func TestOnlineNicknames(t *testing.T) {
	req := require.New(t)
	users := []Presence{{Nickname: "alice", Online: true}, {Nickname: "bob"}, {Nickname: "carol", Online: true}}
	req.Equal([]string{"alice", "carol"}, OnlineNicknames(users))
	req.Empty(OnlineNicknames(nil))
}
