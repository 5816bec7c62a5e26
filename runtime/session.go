package runtime

import (
	stderrors "errors"
	"groupchat/domain"
	"groupchat/errors"
	"groupchat/repositories"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// SessionRegistry owns the ephemeral connection -> nickname map and keeps it
// paired with the persisted online flag of each account.
//
// One mutex is held across the map update and the flag write, so a join and
// a leave on the same nickname can never interleave halfway.
type SessionRegistry struct {
	mu       sync.Mutex
	log      *slog.Logger
	accounts repositories.IAccountRepository
	sessions map[string]string // connection id -> nickname
	owners   map[string]string // nickname -> connection id
}

func NewSessionRegistry(log *slog.Logger, accounts repositories.IAccountRepository) *SessionRegistry {
	return &SessionRegistry{
		log:      log,
		accounts: accounts,
		sessions: make(map[string]string),
		owners:   make(map[string]string),
	}
}

// Reconcile clears every persisted online flag. A fresh process holds no
// session, so any flag still set comes from a previous run.
func (r *SessionRegistry) Reconcile() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts.ResetPresence()
}

// Join binds a connection to a registered nickname and returns the presence
// snapshot taken right after the bind.
func (r *SessionRegistry) Join(connID, nickname string) ([]domain.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[connID]; ok {
		if current != nickname {
			return nil, errors.ErrAlreadyJoined
		}
		return r.snapshot()
	}
	if _, taken := r.owners[nickname]; taken {
		return nil, errors.ErrNicknameInUse
	}

	if _, err := r.accounts.GetAccount(nickname); err != nil {
		if stderrors.Is(err, errors.ErrAccountNotFound) {
			return nil, errors.ErrNotRegistered
		}
		return nil, err
	}
	if err := r.accounts.SetOnline(nickname, true); err != nil {
		return nil, err
	}
	r.sessions[connID] = nickname
	r.owners[nickname] = connID

	r.log.Debug("Session joined", "conn_id", connID, "nickname", nickname)
	return r.snapshot()
}

// Leave unbinds a connection. It is idempotent: an unknown connection
// returns ok == false and touches nothing.
func (r *SessionRegistry) Leave(connID string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nickname, ok := r.sessions[connID]
	if !ok {
		return "", false, nil
	}
	delete(r.sessions, connID)
	delete(r.owners, nickname)

	r.log.Debug("Session left", "conn_id", connID, "nickname", nickname)
	if err := r.accounts.SetOnline(nickname, false); err != nil {
		return nickname, true, err
	}
	return nickname, true, nil
}

// Sweep clears the online flag of every account no connection owns. It
// heals a leave whose flag write failed. The count of cleared flags is
// returned along with the first write error.
func (r *SessionRegistry) Sweep() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.accounts.ListAccounts()
	if err != nil {
		return 0, err
	}
	stale := lo.Filter(accounts, func(a repositories.Account, _ int) bool {
		_, owned := r.owners[a.Nickname]
		return a.Online && !owned
	})
	for i, a := range stale {
		if err := r.accounts.SetOnline(a.Nickname, false); err != nil {
			return i, err
		}
	}
	return len(stale), nil
}

// Snapshot reads presence from the account store, ordered by nickname.
func (r *SessionRegistry) Snapshot() ([]domain.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *SessionRegistry) Nickname(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nickname, ok := r.sessions[connID]
	return nickname, ok
}

func (r *SessionRegistry) IsOnline(nickname string) (bool, error) {
	account, err := r.accounts.GetAccount(nickname)
	if stderrors.Is(err, errors.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return account.Online, nil
}

func (r *SessionRegistry) snapshot() ([]domain.Presence, error) {
	accounts, err := r.accounts.ListAccounts()
	if err != nil {
		return nil, err
	}
	return lo.Map(accounts, func(a repositories.Account, _ int) domain.Presence {
		return domain.Presence{Nickname: a.Nickname, Online: a.Online}
	}), nil
}
