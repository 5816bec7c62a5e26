package sqlite

import (
	"database/sql"
	stderrors "errors"
	"groupchat/errors"
	"groupchat/repositories"
	"time"
)

type AccountRepository struct {
	db *sql.DB
}

// CreateAccount relies on the UNIQUE constraint: a conflicting insert affects no row.
func (r AccountRepository) CreateAccount(nickname, passwordHash string) error {
	res, err := r.db.Exec(
		`INSERT INTO accounts (nickname, password_hash, online, created_at) VALUES (?, ?, 0, ?)
		 ON CONFLICT(nickname) DO NOTHING`,
		nickname, passwordHash, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return errors.ErrNicknameTaken
	}
	return nil
}

func (r AccountRepository) GetAccount(nickname string) (repositories.Account, error) {
	row := r.db.QueryRow(
		`SELECT nickname, password_hash, online, created_at FROM accounts WHERE nickname = ?`, nickname)
	account, err := scanAccount(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return repositories.Account{}, errors.ErrAccountNotFound
	}
	if err != nil {
		return repositories.Account{}, storageErr(err)
	}
	return account, nil
}

func (r AccountRepository) SetOnline(nickname string, online bool) error {
	res, err := r.db.Exec(`UPDATE accounts SET online = ? WHERE nickname = ?`, online, nickname)
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return errors.ErrAccountNotFound
	}
	return nil
}

func (r AccountRepository) ListAccounts() ([]repositories.Account, error) {
	rows, err := r.db.Query(
		`SELECT nickname, password_hash, online, created_at FROM accounts ORDER BY nickname ASC`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var accounts []repositories.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		accounts = append(accounts, account)
	}
	return accounts, storageErr(rows.Err())
}

func (r AccountRepository) ResetPresence() (int, error) {
	res, err := r.db.Exec(`UPDATE accounts SET online = 0 WHERE online = 1`)
	if err != nil {
		return 0, storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (repositories.Account, error) {
	var (
		account   repositories.Account
		createdAt string
	)
	if err := s.Scan(&account.Nickname, &account.PasswordHash, &account.Online, &createdAt); err != nil {
		return repositories.Account{}, err
	}
	at, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return repositories.Account{}, err
	}
	account.CreatedAt = at.UTC()
	return account, nil
}
