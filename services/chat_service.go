//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	stderrors "errors"
	"groupchat/contract"
	"groupchat/domain"
	"groupchat/domain/event"
	"groupchat/errors"
	"groupchat/repositories"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/samber/lo"
)

type IChatService interface {
	Join(ctx context.Context, connID, nickname string, sink contract.EventSink) error
	Leave(ctx context.Context, connID string)
	Post(ctx context.Context, connID, text string)
	History(nickname string) ([]domain.Message, error)
	ClearHistory(nickname string) (int64, error)
	CheckNickname(nickname string) error
}

// ChatService glues the session registry, the router, the history and the
// hub together for one inbound event at a time.
type ChatService struct {
	log      *slog.Logger
	registry contract.ISessionRegistry
	hub      contract.IHub
	router   contract.IRouter
	history  repositories.IHistoryRepository
}

func NewChatService(log *slog.Logger, registry contract.ISessionRegistry, hub contract.IHub,
	router contract.IRouter, history repositories.IHistoryRepository) *ChatService {
	return &ChatService{log: log, registry: registry, hub: hub, router: router, history: history}
}

// Join binds the connection, then sends the user list and the replayed
// history to it alone, then announces the newcomer to everyone.
// The private events are sent while the hub holds back broadcasts, and live
// messages already covered by the replay are dropped, so the newcomer sees
// every message once and in order.
// A rejected join is reported to the sink and returned.
func (s *ChatService) Join(ctx context.Context, connID, nickname string, sink contract.EventSink) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return errors.ErrInvalidRequest
	}

	users, err := s.registry.Join(connID, nickname)
	if err != nil {
		s.log.Debug("Join rejected", "conn_id", connID, "nickname", nickname, "error", err)
		if consumeErr := sink.Consume(ctx, event.Failure{Message: joinFailureMessage(err)}); consumeErr != nil {
			s.log.Warn("Join failure not delivered", "conn_id", connID, "error", consumeErr)
		}
		return err
	}

	replayed := &replayedSink{EventSink: sink}
	s.hub.SubscribeWith(ctx, connID, replayed, func(send func(event.DomainEvent) error) {
		if err := send(event.UserList{Users: users}); err != nil {
			s.log.Warn("User list not delivered", "conn_id", connID, "error", err)
		}
		messages, err := s.History(nickname)
		if err != nil {
			s.log.Error("History replay failed", "nickname", nickname, "error", err)
		}
		for _, m := range messages {
			if err := send(event.MessagePosted{Record: domain.FromMessage(m)}); err != nil {
				s.log.Warn("History replay interrupted", "conn_id", connID, "error", err)
				break
			}
			replayed.seen(m.ID)
		}
	})

	s.hub.Broadcast(ctx, event.UserJoined{Nickname: nickname, Users: users})
	s.log.Info("User joined", "nickname", nickname, "online", len(domain.OnlineNicknames(users)))
	return nil
}

// Leave is safe to call for connections that never joined.
func (s *ChatService) Leave(ctx context.Context, connID string) {
	s.hub.Unsubscribe(connID)

	nickname, ok, err := s.registry.Leave(connID)
	if err != nil {
		s.log.Error("Presence update failed on leave", "nickname", nickname, "error", err)
	}
	if !ok {
		return
	}

	users, err := s.registry.Snapshot()
	if err != nil {
		s.log.Error("Presence snapshot failed", "error", err)
	}
	s.hub.Broadcast(ctx, event.UserLeft{Nickname: nickname, Users: users})
	s.log.Info("User left", "nickname", nickname)
}

// Post routes a message from a joined connection and broadcasts every
// resulting record. Empty text and unjoined connections are ignored.
func (s *ChatService) Post(ctx context.Context, connID, text string) {
	if text == "" {
		return
	}
	nickname, ok := s.registry.Nickname(connID)
	if !ok {
		s.log.Debug("Message from unjoined connection ignored", "conn_id", connID)
		return
	}

	emission, err := s.router.Route(ctx, nickname, text)
	if err != nil {
		s.log.Error("Message dropped", "nickname", nickname, "error", err)
		return
	}
	for _, record := range emission {
		s.hub.Broadcast(ctx, event.MessagePosted{Record: record})
	}
}

func (s *ChatService) History(nickname string) ([]domain.Message, error) {
	stored, err := s.history.Replay(nickname)
	if err != nil {
		return nil, err
	}
	return lo.Map(stored, func(m repositories.DiskMessage, _ int) domain.Message {
		return domain.Message{
			ID:       m.ID,
			Nickname: m.Nickname,
			Payload:  m.Payload,
			Type:     domain.MessageType(m.Type),
			At:       m.At.In(domain.Zone),
		}
	}), nil
}

func (s *ChatService) ClearHistory(nickname string) (int64, error) {
	watermark, err := s.history.ClearFor(nickname)
	if err != nil {
		return 0, err
	}
	s.log.Info("History cleared", "nickname", nickname, "watermark", watermark)
	return watermark, nil
}

// CheckNickname tells a client whether a nickname can join right now.
func (s *ChatService) CheckNickname(nickname string) error {
	if strings.TrimSpace(nickname) == "" {
		return errors.ErrInvalidRequest
	}
	online, err := s.registry.IsOnline(nickname)
	if err != nil {
		return err
	}
	if online {
		return errors.ErrNicknameInUse
	}
	return nil
}

// replayedSink drops live messages the joining connection already got from
// the history replay. A message persisted before the replay read can still be
// broadcast after the subscription.
type replayedSink struct {
	contract.EventSink
	last atomic.Int64
}

func (r *replayedSink) seen(id int64) {
	if id > r.last.Load() {
		r.last.Store(id)
	}
}

func (r *replayedSink) Consume(ctx context.Context, e event.DomainEvent) error {
	if posted, ok := e.(event.MessagePosted); ok && posted.Record.ID != 0 && posted.Record.ID <= r.last.Load() {
		return nil
	}
	return r.EventSink.Consume(ctx, e)
}

func joinFailureMessage(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrNotRegistered),
		stderrors.Is(err, errors.ErrNicknameInUse),
		stderrors.Is(err, errors.ErrAlreadyJoined):
		return err.Error()
	default:
		return "join failed, please retry"
	}
}
