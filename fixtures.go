package main

import (
	"github.com/l8smu/rankedbot/internal/back"
	"github.com/l8smu/rankedbot/internal/config"
)

func loadFixtures(conf *config.Config) error {
	b, err := back.New("sqlite3", conf.SQLDSN, conf)
	if err != nil {
		return err
	}

	return b.LoadFixtures()
}
