// Package domain contains core concepts of the chat system.
// This file defines Message records and the command types they carry.
// Messages are immutable once the history store has assigned their id.
package domain

import "time"

// BotNickname is the identity the AI assistant speaks with. It cannot be registered.
const BotNickname = "川小农"

// Zone is the fixed UTC+8 offset every timestamp is stored and emitted in.
var Zone = time.FixedZone("UTC+8", 8*60*60)

// Now returns the current time in Zone.
func Now() time.Time {
	return time.Now().In(Zone)
}

type MessageType string

const (
	TypeText    MessageType = "text"
	TypeAI      MessageType = "ai"
	TypeWeather MessageType = "weather"
	TypeMovie   MessageType = "movie"
	TypeMusic   MessageType = "music"
	TypeNews    MessageType = "news"
)

// Message is a persisted entry of the global chat log.
type Message struct {
	ID       int64
	Nickname string
	Payload  string
	Type     MessageType
	At       time.Time
}

// Record is one outbound message produced by routing an inbound text.
// Original carries the raw inbound text, WeatherType is only set for
// successful weather lookups.
type Record struct {
	ID          int64
	Nickname    string
	Type        MessageType
	Payload     string
	Original    string
	WeatherType string
	At          time.Time
}

// Emission holds the one or two records produced for a single inbound message.
type Emission []Record

// FromMessage builds the record replayed to a joining connection.
func FromMessage(m Message) Record {
	return Record{
		ID:       m.ID,
		Nickname: m.Nickname,
		Type:     m.Type,
		Payload:  m.Payload,
		Original: m.Payload,
		At:       m.At,
	}
}
