package sqlite

import (
	"database/sql"
	stderrors "errors"
	"groupchat/domain"
	"groupchat/repositories"
	"log/slog"
	"time"
)

type HistoryRepository struct {
	db    *sql.DB
	log   *slog.Logger
	limit int
}

func (h HistoryRepository) Append(message repositories.DiskMessage) (int64, error) {
	res, err := h.db.Exec(
		`INSERT INTO messages (nickname, payload, type, timestamp) VALUES (?, ?, ?, ?)`,
		message.Nickname, message.Payload, message.Type, message.At.In(domain.Zone).Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, storageErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr(err)
	}
	return id, nil
}

// Replay selects the newest rows above the watermark and returns them oldest first.
func (h HistoryRepository) Replay(nickname string) ([]repositories.DiskMessage, error) {
	rows, err := h.db.Query(
		`SELECT id, nickname, payload, type, timestamp FROM (
			SELECT id, nickname, payload, type, timestamp FROM messages
			WHERE id > COALESCE((SELECT last_cleared_message_id FROM preferences WHERE nickname = ?), 0)
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		nickname, h.limit,
	)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var messages []repositories.DiskMessage
	for rows.Next() {
		var (
			message repositories.DiskMessage
			at      string
		)
		if err := rows.Scan(&message.ID, &message.Nickname, &message.Payload, &message.Type, &at); err != nil {
			return nil, storageErr(err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, storageErr(err)
		}
		message.At = parsed.In(domain.Zone)
		messages = append(messages, message)
	}
	return messages, storageErr(rows.Err())
}

// ClearFor reads the current max id and upserts the watermark in one statement.
func (h HistoryRepository) ClearFor(nickname string) (int64, error) {
	var watermark int64
	err := h.db.QueryRow(
		`INSERT INTO preferences (nickname, last_cleared_message_id)
		 VALUES (?, (SELECT COALESCE(MAX(id), 0) FROM messages))
		 ON CONFLICT(nickname) DO UPDATE SET last_cleared_message_id =
			MAX(preferences.last_cleared_message_id, excluded.last_cleared_message_id)
		 RETURNING last_cleared_message_id`,
		nickname,
	).Scan(&watermark)
	if err != nil {
		return 0, storageErr(err)
	}
	h.log.Debug("History cleared", "nickname", nickname, "watermark", watermark)
	return watermark, nil
}

func (h HistoryRepository) Watermark(nickname string) (int64, error) {
	var watermark int64
	err := h.db.QueryRow(
		`SELECT last_cleared_message_id FROM preferences WHERE nickname = ?`, nickname,
	).Scan(&watermark)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storageErr(err)
	}
	return watermark, nil
}
