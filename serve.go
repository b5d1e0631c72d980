package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/l8smu/rankedbot/internal/back"
	"github.com/l8smu/rankedbot/internal/bot"
	"github.com/l8smu/rankedbot/internal/config"
	"github.com/l8smu/rankedbot/internal/web"
)

func serve(conf *config.Config) error {
	b, err := back.New("sqlite3", conf.SQLDSN, conf)
	if err != nil {
		return err
	}

	// Rebuild the active match registry before anyone can issue commands.
	if err := b.RestoreActiveMatches(); err != nil {
		return err
	}

	discord, err := bot.New(b, conf)
	if err != nil {
		return err
	}

	server := web.NewServer(b, conf.WebListenAddr)

	done := make(chan struct{})
	var wg sync.WaitGroup
	go b.Run(&wg, done)
	go discord.Serve(&wg, done)
	go server.Serve(&wg, done)

	signaled := make(chan os.Signal, 1)
	signal.Notify(signaled, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signaled
	log.Printf("info: received signal %d", sig)

	close(done)
	wg.Wait()
	log.Print("info: shutdown complete")

	return nil
}
