package back

import (
	"github.com/jmoiron/sqlx"
)

// LoadFixtures inserts a handful of players for quick testing during
// development.
func (b *Back) LoadFixtures() error {
	players := []struct {
		id, name string
		mmr      int
		wins     int
		losses   int
	}{
		{"100000000000000001", "Darunia", 1450, 25, 8},
		{"100000000000000002", "Nabooru", 1350, 20, 12},
		{"100000000000000003", "Rauru", 1200, 15, 5},
		{"100000000000000004", "Ruto", 1100, 12, 14},
		{"100000000000000005", "Saria", 950, 7, 11},
		{"100000000000000006", "Zelda", 900, 5, 13},
	}

	return b.transaction(func(tx *sqlx.Tx) error {
		for _, v := range players {
			player := NewPlayer(v.id, v.name)
			player.MMR = v.mmr
			player.Wins = v.wins
			player.Losses = v.losses
			player.PlacementMatchesRemaining = 0
			player.IsPlaced = true

			if err := player.insert(tx); err != nil {
				return err
			}
		}

		return nil
	})
}
