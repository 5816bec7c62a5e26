//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=../mocks/mock_account_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"groupchat/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const accountPrefix = "account:"

type IAccountRepository interface {
	CreateAccount(nickname, passwordHash string) error
	GetAccount(nickname string) (Account, error)
	SetOnline(nickname string, online bool) error
	ListAccounts() ([]Account, error)
	ResetPresence() (int, error)
}

// Account is the repository-level representation of a registered nickname.
type Account struct {
	Nickname     string
	PasswordHash string
	Online       bool
	CreatedAt    time.Time
}

type AccountRepository struct {
	db *badger.DB
}

func NewAccountRepository(db *badger.DB) IAccountRepository {
	return &AccountRepository{db: db}
}

func accountKey(nickname string) []byte {
	return []byte(accountPrefix + nickname)
}

// CreateAccount persists a new offline account.
// Uniqueness is enforced inside the transaction: an existing key, or a
// concurrent writer detected by Badger at commit time, yields ErrNicknameTaken.
func (r AccountRepository) CreateAccount(nickname, passwordHash string) error {
	data := marshalAccount(Account{
		Nickname:     nickname,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	})

	err := r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(accountKey(nickname))
		switch {
		case err == nil:
			return errors.ErrNicknameTaken
		case !stderrors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(accountKey(nickname), data)
	})

	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, errors.ErrNicknameTaken), stderrors.Is(err, badger.ErrConflict):
		return errors.ErrNicknameTaken
	default:
		return fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
}

func (r AccountRepository) GetAccount(nickname string) (Account, error) {
	var account Account
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		account, err = getAccount(txn, nickname)
		return err
	})
	if err != nil {
		return Account{}, storageErr(err)
	}
	return account, nil
}

// SetOnline flips the persisted presence flag. Last writer wins.
func (r AccountRepository) SetOnline(nickname string, online bool) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		account, err := getAccount(txn, nickname)
		if err != nil {
			return err
		}
		account.Online = online
		return txn.Set(accountKey(nickname), marshalAccount(account))
	})
	return storageErr(err)
}

// ListAccounts returns every account ordered by nickname (key order).
func (r AccountRepository) ListAccounts() ([]Account, error) {
	var accounts []Account
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(accountPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				account, err := unmarshalAccount(val)
				if err != nil {
					return err
				}
				accounts = append(accounts, account)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return accounts, nil
}

// ResetPresence marks every account offline and returns how many were flipped.
func (r AccountRepository) ResetPresence() (int, error) {
	accounts, err := r.ListAccounts()
	if err != nil {
		return 0, err
	}
	count := 0
	err = r.db.Update(func(txn *badger.Txn) error {
		for _, account := range accounts {
			if !account.Online {
				continue
			}
			account.Online = false
			if err := txn.Set(accountKey(account.Nickname), marshalAccount(account)); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, storageErr(err)
	}
	return count, nil
}

func getAccount(txn *badger.Txn, nickname string) (Account, error) {
	item, err := txn.Get(accountKey(nickname))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return Account{}, errors.ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	var account Account
	err = item.Value(func(val []byte) error {
		account, err = unmarshalAccount(val)
		return err
	})
	return account, err
}

// storageErr keeps domain sentinels intact and classifies everything else as a storage failure.
func storageErr(err error) error {
	if err == nil || stderrors.Is(err, errors.ErrAccountNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrStorage, err)
}
