// Package ws is the realtime transport: one websocket per client, JSON
// envelopes {"event": name, "data": {...}} in both directions.
package ws

import (
	"encoding/json"
	"fmt"
	"groupchat/domain"
	"groupchat/domain/event"
	"groupchat/errors"
	"time"

	"github.com/samber/lo"
)

// Inbound event names.
const (
	EventJoin    = "join"
	EventMessage = "message"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinData struct {
	Nickname string `json:"nickname"`
}

type MessageData struct {
	Msg string `json:"msg"`
}

type UserDTO struct {
	Nickname string `json:"nickname"`
	Online   bool   `json:"online"`
}

type UserListDTO struct {
	Users []UserDTO `json:"users"`
}

type PresenceDTO struct {
	Nickname string    `json:"nickname"`
	Users    []UserDTO `json:"users"`
}

type MessageDTO struct {
	ID          int64  `json:"id"`
	Nickname    string `json:"nickname"`
	Type        string `json:"type"`
	Payload     string `json:"payload"`
	OriginalMsg string `json:"original_msg"`
	Timestamp   string `json:"timestamp"`
	WeatherType string `json:"weather_type,omitempty"`
}

type ErrorDTO struct {
	Message string `json:"message"`
}

// Encode renders a domain event as a wire envelope.
func Encode(e event.DomainEvent) ([]byte, error) {
	var data any
	switch evt := e.(type) {
	case event.UserList:
		data = UserListDTO{Users: toUsers(evt.Users)}
	case event.UserJoined:
		data = PresenceDTO{Nickname: evt.Nickname, Users: toUsers(evt.Users)}
	case event.UserLeft:
		data = PresenceDTO{Nickname: evt.Nickname, Users: toUsers(evt.Users)}
	case event.MessagePosted:
		data = ToMessageDTO(evt.Record)
	case event.Failure:
		data = ErrorDTO{Message: evt.Message}
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownEvent, e)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: e.Name(), Data: raw})
}

// Decode splits an inbound frame into its event name and payload.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", errors.ErrInvalidRequest)
	}
	return env, nil
}

func ToMessageDTO(r domain.Record) MessageDTO {
	return MessageDTO{
		ID:          r.ID,
		Nickname:    r.Nickname,
		Type:        string(r.Type),
		Payload:     r.Payload,
		OriginalMsg: r.Original,
		Timestamp:   r.At.In(domain.Zone).Format(time.RFC3339),
		WeatherType: r.WeatherType,
	}
}

func toUsers(users []domain.Presence) []UserDTO {
	if users == nil {
		return []UserDTO{}
	}
	return lo.Map(users, func(u domain.Presence, _ int) UserDTO {
		return UserDTO{Nickname: u.Nickname, Online: u.Online}
	})
}
