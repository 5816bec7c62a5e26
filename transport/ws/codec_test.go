package ws

import (
	"encoding/json"
	"groupchat/domain"
	"groupchat/domain/event"
	"groupchat/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncode_Message(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 10, 1, 0, 30, 0, 0, time.UTC)

	frame, err := Encode(event.MessagePosted{Record: domain.Record{
		ID:          3,
		Nickname:    "alice",
		Type:        domain.TypeWeather,
		Payload:     "成都：晴",
		Original:    "@weather 成都",
		WeatherType: "sunny",
		At:          at,
	}})
	req.NoError(err)
	req.JSONEq(`{"event":"message","data":{
		"id":3,"nickname":"alice","type":"weather","payload":"成都：晴",
		"original_msg":"@weather 成都","timestamp":"2024-10-01T08:30:00+08:00","weather_type":"sunny"}}`, string(frame))
}

func TestEncode_Message_Without_Weather_Type(t *testing.T) {
	req := require.New(t)
	frame, err := Encode(event.MessagePosted{Record: domain.Record{Nickname: "bob", Type: domain.TypeText}})
	req.NoError(err)
	req.NotContains(string(frame), "weather_type")
}

func TestEncode_Presence(t *testing.T) {
	req := require.New(t)
	users := []domain.Presence{{Nickname: "alice", Online: true}, {Nickname: "bob"}}

	frame, err := Encode(event.UserJoined{Nickname: "alice", Users: users})
	req.NoError(err)
	req.JSONEq(`{"event":"user_joined","data":{"nickname":"alice","users":[
		{"nickname":"alice","online":true},{"nickname":"bob","online":false}]}}`, string(frame))

	frame, err = Encode(event.UserList{})
	req.NoError(err)
	req.JSONEq(`{"event":"user_list","data":{"users":[]}}`, string(frame))

	frame, err = Encode(event.Failure{Message: "nickname is not registered"})
	req.NoError(err)
	req.JSONEq(`{"event":"error","data":{"message":"nickname is not registered"}}`, string(frame))
}

type unknownEvent struct{}

func (unknownEvent) Name() string { return "unknown" }

func TestEncode_Unknown_Event(t *testing.T) {
	_, err := Encode(unknownEvent{})
	require.ErrorIs(t, err, errors.ErrUnknownEvent)
}

func TestDecode(t *testing.T) {
	req := require.New(t)
	env, err := Decode([]byte(`{"event":"join","data":{"nickname":"alice"}}`))
	req.NoError(err)
	req.Equal(EventJoin, env.Event)

	var data JoinData
	req.NoError(json.Unmarshal(env.Data, &data))
	req.Equal("alice", data.Nickname)

	_, err = Decode([]byte(`not json`))
	req.ErrorIs(err, errors.ErrInvalidRequest)
	_, err = Decode([]byte(`{"data":{}}`))
	req.ErrorIs(err, errors.ErrInvalidRequest)
}
