//go:generate go run go.uber.org/mock/mockgen -source=history.go -destination=../mocks/mock_history_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"groupchat/domain"
	"groupchat/errors"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	messagePrefix      = "msg:"
	preferencePrefix   = "pref:"
	sequenceKey        = "seq:msg"
	DefaultReplayLimit = 100
)

type IHistoryRepository interface {
	Append(message DiskMessage) (int64, error)
	Replay(nickname string) ([]DiskMessage, error)
	ClearFor(nickname string) (int64, error)
	Watermark(nickname string) (int64, error)
}

// DiskMessage is the stored form of a chat message.
type DiskMessage struct {
	ID       int64
	Nickname string
	Payload  string
	Type     string
	At       time.Time
}

// HistoryRepository keeps the append-only log and the per-nickname watermarks
// in the same Badger database.
//
// Keys:
//   - "msg:{id}" with a 20-digit zero padded id, so key order is id order
//   - "seq:msg" holding the last assigned id
//   - "pref:{nickname}" holding the last cleared id
//
// Writers (Append, ClearFor) are serialized by mu so that an id is never
// visible before every smaller id has been committed.
type HistoryRepository struct {
	mu    sync.Mutex
	db    *badger.DB
	log   *slog.Logger
	limit int
}

func NewHistoryRepository(db *badger.DB, log *slog.Logger, limit int) *HistoryRepository {
	if limit <= 0 {
		limit = DefaultReplayLimit
	}
	return &HistoryRepository{db: db, log: log, limit: limit}
}

func messageKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", messagePrefix, id))
}

func preferenceKey(nickname string) []byte {
	return []byte(preferencePrefix + nickname)
}

// Append assigns the next id and stores the message in a single transaction.
func (h *HistoryRepository) Append(message DiskMessage) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var id int64
	err := h.db.Update(func(txn *badger.Txn) error {
		last, err := readCounter(txn, []byte(sequenceKey))
		if err != nil {
			return err
		}
		id = last + 1
		message.ID = id
		if err = txn.Set(messageKey(id), marshalMessage(message)); err != nil {
			return err
		}
		return txn.Set([]byte(sequenceKey), marshalCounter(id))
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return id, nil
}

// Replay returns the most recent messages above the nickname's watermark, oldest first.
// The watermark and the log are read from the same snapshot.
func (h *HistoryRepository) Replay(nickname string) ([]DiskMessage, error) {
	var messages []DiskMessage
	err := h.db.View(func(txn *badger.Txn) error {
		watermark, err := readCounter(txn, preferenceKey(nickname))
		if err != nil {
			return err
		}

		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(messageKey(math.MaxInt64)); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == h.limit {
				h.log.Debug(fmt.Sprintf("Maximum of %d messages reached", h.limit))
				break
			}
			var message DiskMessage
			err := it.Item().Value(func(val []byte) error {
				message, err = unmarshalMessage(val, domain.Zone)
				return err
			})
			if err != nil {
				return err
			}
			if message.ID <= watermark {
				break
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	slices.Reverse(messages)
	return messages, nil
}

// ClearFor moves the nickname's watermark to the current last id.
// The watermark never moves backwards.
func (h *HistoryRepository) ClearFor(nickname string) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var watermark int64
	err := h.db.Update(func(txn *badger.Txn) error {
		last, err := readCounter(txn, []byte(sequenceKey))
		if err != nil {
			return err
		}
		previous, err := readCounter(txn, preferenceKey(nickname))
		if err != nil {
			return err
		}
		watermark = max(previous, last)
		return txn.Set(preferenceKey(nickname), marshalCounter(watermark))
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	h.log.Debug("History cleared", "nickname", nickname, "watermark", watermark)
	return watermark, nil
}

func (h *HistoryRepository) Watermark(nickname string) (int64, error) {
	var watermark int64
	err := h.db.View(func(txn *badger.Txn) error {
		var err error
		watermark, err = readCounter(txn, preferenceKey(nickname))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return watermark, nil
}

// readCounter returns 0 for a missing key.
func readCounter(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v int64
	err = item.Value(func(val []byte) error {
		v, err = unmarshalCounter(val)
		return err
	})
	return v, err
}
