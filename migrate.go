package main

import (
	"errors"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/l8smu/rankedbot/internal/config"
)

func migrateDatabase(conf *config.Config) error {
	m, err := migrate.New("file://migrations", "sqlite3://"+conf.SQLDSN)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Print("info: database schema already up to date")
			return nil
		}

		return err
	}

	log.Print("info: database schema upgraded")

	return nil
}
