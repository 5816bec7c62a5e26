//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"groupchat/domain"
	"groupchat/domain/event"
)

// Worker is a background task run by the supervisor. It returns nil once
// ctx is done, any error gets it restarted.
type Worker interface {
	Run(ctx context.Context) error
}

// EventSink is one subscriber of the broadcast channel, usually a connection.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Fetcher is the capability behind a chat command (AI, weather, movie, music, news).
type Fetcher[T any] interface {
	Fetch(ctx context.Context, query string) (T, error)
}

type IHub interface {
	// SubscribeWith lets prime send private events to the sink before any
	// broadcast can reach it.
	SubscribeWith(ctx context.Context, connID string, sink EventSink, prime func(send func(event.DomainEvent) error))
	Unsubscribe(connID string)
	Send(ctx context.Context, connID string, e event.DomainEvent) error
	Broadcast(ctx context.Context, e event.DomainEvent)
	Count() int
}

type ISessionRegistry interface {
	Join(connID, nickname string) ([]domain.Presence, error)
	Leave(connID string) (string, bool, error)
	Snapshot() ([]domain.Presence, error)
	Nickname(connID string) (string, bool)
	IsOnline(nickname string) (bool, error)
}

type IRouter interface {
	Route(ctx context.Context, nickname, raw string) (domain.Emission, error)
}
