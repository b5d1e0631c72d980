package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/l8smu/rankedbot/internal/config"
	_ "github.com/mattn/go-sqlite3"
)

// Version holds the build-time version string.
var Version = "unknown" // nolint:gochecknoglobals

func main() {
	flag.Parse()

	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		log.Fatalf("error: unable to load configuration: %s", err)
	}

	switch flag.Arg(0) { // nolint:gocritic
	case "version":
		fmt.Fprintf(os.Stdout, "RankedBot %s\n", Version)
	case "serve":
		if err := serve(conf); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "migrate":
		if err := migrateDatabase(conf); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "dev:fixtures":
		if err := loadFixtures(conf); err != nil {
			log.Fatalf("error: %s", err)
		}
	case "help":
		fmt.Fprint(os.Stdout, help())
		return
	default:
		fmt.Fprint(os.Stderr, help())
		os.Exit(1)
	}
}

func help() string {
	return fmt.Sprintf(`
RankedBot is a Discord matchmaking bot with team balancing, captain
drafts, and an Elo-style ladder.

Usage: %[1]s COMMAND [ARGS…]

COMMANDS
    serve        run the bot, the matchmaking engine, and the JSON API
    migrate      upgrade the database schema to the latest version
    dev:fixtures create default data for quick testing during development
    help         display this help
    version      display the current version
`,
		os.Args[0],
	)
}
