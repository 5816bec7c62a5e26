package event

import "groupchat/domain"

// DomainEvent is anything the broadcast channel can deliver to a connection.
type DomainEvent interface {
	Name() string
}

const (
	NameUserList   = "user_list"
	NameUserJoined = "user_joined"
	NameUserLeft   = "user_left"
	NameMessage    = "message"
	NameError      = "error"
)

// UserList is the full presence snapshot sent to a joining connection only.
type UserList struct {
	Users []domain.Presence
}

func (UserList) Name() string { return NameUserList }

type UserJoined struct {
	Nickname string
	Users    []domain.Presence
}

func (UserJoined) Name() string { return NameUserJoined }

type UserLeft struct {
	Nickname string
	Users    []domain.Presence
}

func (UserLeft) Name() string { return NameUserLeft }

// MessagePosted carries a live emission record or a replayed history entry.
type MessagePosted struct {
	Record domain.Record
}

func (MessagePosted) Name() string { return NameMessage }

// Failure is the error event sent to a single connection.
type Failure struct {
	Message string
}

func (Failure) Name() string { return NameError }
