package back // nolint:testpackage

import (
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/l8smu/rankedbot/internal/config"
	_ "github.com/mattn/go-sqlite3"
)

func createTestBack(t *testing.T, queueSize int) *Back {
	t.Helper()

	f, err := os.CreateTemp("", "*.db")
	if err != nil {
		t.Fatal(err)
	}
	path := f.Name()
	f.Close()
	t.Cleanup(func() {
		os.Remove(path)
	})

	migrator, err := migrate.New(
		"file://../../migrations",
		"sqlite3://"+path,
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatal(err)
	}
	migrator.Close()

	conf := &config.Config{
		SQLDSN:              path,
		QueueSize:           queueSize,
		QueueTimeoutMinutes: 5,
	}
	if err := conf.Validate(); err != nil {
		t.Fatal(err)
	}

	back, err := New("sqlite3", path, conf)
	if err != nil {
		t.Fatal(err)
	}

	return back
}

// testPlayer creates a placed veteran with a fixed rating, the placement
// fast-lane would get in the way of most rating assertions.
func testPlayer(id, name string, mmr int) Player {
	p := NewPlayer(id, name)
	p.MMR = mmr
	p.Wins = 20
	p.Losses = 15
	p.PlacementMatchesRemaining = 0
	p.IsPlaced = true

	return p
}

func insertTestPlayers(t *testing.T, back *Back, players ...Player) {
	t.Helper()

	for k := range players {
		p := players[k]
		if err := back.transaction(p.insert); err != nil {
			t.Fatal(err)
		}
	}
}

// onlyGroup returns the single pending FormationGroup or fails.
func onlyGroup(t *testing.T, back *Back) *FormationGroup {
	t.Helper()

	if len(back.groups) != 1 {
		t.Fatalf("expected exactly 1 formation group, got %d", len(back.groups))
	}

	for _, g := range back.groups {
		return g
	}

	return nil // unreachable
}
