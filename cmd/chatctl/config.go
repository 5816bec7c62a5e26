package main

import (
	"groupchat/internal"

	"github.com/kelseyhightower/envconfig"
)

// Config points chatctl at the same store the server uses.
// The server must be stopped while chatctl writes to a Badger store.
type Config struct {
	StoreDriver    string `envconfig:"STORE_DRIVER" default:"badger"`
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"data/badger"`
	SqliteFilepath string `envconfig:"SQLITE_FILEPATH" default:"data/chat.db"`
	HistoryLimit   int    `envconfig:"HISTORY_LIMIT" default:"100"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"WARN"`
	// CHATCTL_COLOURS enables colorized output
	Colours bool `envconfig:"CHATCTL_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

func (c Config) Store() internal.StoreConfig {
	return internal.StoreConfig{
		Driver:         c.StoreDriver,
		BadgerFilepath: c.BadgerFilepath,
		SqliteFilepath: c.SqliteFilepath,
		HistoryLimit:   c.HistoryLimit,
	}
}
