package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	// DiscordListenIDs is a list of channel ID where the bot will listen and
	// accept commands. PMs are always listened to.
	DiscordListenIDs []string

	// Who is allowed to use admin commands (eg. `!override`).
	DiscordAdminUserIDs []string

	// Who is not allowed to do anything.
	DiscordBannedUserIDs []string

	DiscordToken string

	// SQLDSN is the path to the SQLite database.
	SQLDSN string

	// WebListenAddr is the host:port of the read-only JSON API.
	WebListenAddr string

	// QueueSize is the number of players popped into a single match, it
	// must be even and at least 2. TeamSize is always QueueSize/2.
	QueueSize int

	// QueueTimeoutMinutes is the queue idle time after which the whole
	// queue is cleared.
	QueueTimeoutMinutes int
}

func NewFromUserConfigDir() (*Config, error) {
	c := &Config{}
	if err := c.ReloadFromUserConfigDir(); err != nil {
		return nil, err
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.SQLDSN == "" {
		c.SQLDSN = "./rankedbot.db"
	}
	if c.WebListenAddr == "" {
		c.WebListenAddr = "127.0.0.1:3001"
	}
	if c.QueueSize == 0 {
		c.QueueSize = 4
	}
	if c.QueueTimeoutMinutes == 0 {
		c.QueueTimeoutMinutes = 5
	}
}

func (c *Config) Validate() error {
	if c.QueueSize < 2 || c.QueueSize%2 != 0 {
		return fmt.Errorf("queue size must be an even number >= 2, got %d", c.QueueSize)
	}

	if c.QueueTimeoutMinutes < 1 {
		return fmt.Errorf("queue timeout must be at least one minute, got %d", c.QueueTimeoutMinutes)
	}

	return nil
}

// TeamSize is the number of players on each side of a match.
func (c *Config) TeamSize() int {
	return c.QueueSize / 2
}

func (c *Config) QueueTimeout() time.Duration {
	return time.Duration(c.QueueTimeoutMinutes) * time.Minute
}

func (c *Config) IsDiscordIDAdmin(discordID string) bool {
	for _, v := range c.DiscordAdminUserIDs {
		if v == discordID {
			return true
		}
	}

	return false
}

func (c *Config) IsDiscordIDBanned(discordID string) bool {
	for _, v := range c.DiscordBannedUserIDs {
		if v == discordID {
			return true
		}
	}

	return false
}

func (c *Config) expandFromEnv() {
	vars := []struct {
		src string
		dst *string
	}{
		{"RANKEDBOT_DISCORD_TOKEN", &c.DiscordToken},
		{"RANKEDBOT_SQL_DSN", &c.SQLDSN},
		{"RANKEDBOT_WEB_ADDR", &c.WebListenAddr},
	}

	for _, v := range vars {
		if str := os.Getenv(v.src); str != "" {
			*v.dst = str
		}
	}
}

func (c *Config) ReloadFromUserConfigDir() error {
	defer c.expandFromEnv()

	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}
	log.Printf("debug: reading conf from %s", path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		*c = Config{}
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(c)
}

func getOrCreateUserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(configDir, "rankedbot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.json"), nil
}

func (c *Config) Write() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}
	log.Printf("debug: writing conf to %s", path)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o700)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(f).Encode(c); err != nil {
		if err2 := f.Close(); err2 != nil {
			return fmt.Errorf("unable to close file (%s) after error: %w", err2, err)
		}

		return err
	}

	return f.Close()
}
