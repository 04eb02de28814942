package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/metalagman/preserve/internal/config"
	"github.com/metalagman/preserve/internal/db"
	"github.com/spf13/viper"
)

func stateDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, stateDirName), nil
}

func openDB() (*sql.DB, string, func(), error) {
	dir, err := stateDir()
	if err != nil {
		return nil, "", func() {}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", func() {}, err
	}
	storeDB, err := db.Open(db.Path(dir))
	if err != nil {
		return nil, "", func() {}, err
	}
	return storeDB, dir, func() { _ = storeDB.Close() }, nil
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(viper.New(), path)
	if err != nil {
		return config.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
