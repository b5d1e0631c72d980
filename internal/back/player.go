package back

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/l8smu/rankedbot/internal/util"
)

// PlacementMatchesCount is the number of initial matches during which a
// player's rating is provisional and moves with an amplified K-factor.
const PlacementMatchesCount = 5

// DefaultMMR is the rating assigned to a player on their first queue join.
const DefaultMMR = 1000

// A Player is a competitor that can queue up and be part of a Match.
// Players are created on first queue join and never deleted, their stats are
// only ever mutated by match settlement.
type Player struct {
	ID        string // platform user ID, opaque to the engine
	CreatedAt util.TimeAsTimestamp
	Username  string

	MMR                       int
	Wins                      int
	Losses                    int
	PlacementMatchesRemaining int
	IsPlaced                  bool
}

func NewPlayer(id, username string) Player {
	return Player{
		ID:                        id,
		CreatedAt:                 util.TimeAsTimestamp(time.Now()),
		Username:                  username,
		MMR:                       DefaultMMR,
		PlacementMatchesRemaining: PlacementMatchesCount,
	}
}

// InPlacement is true while the player's rating is provisional.
func (p *Player) InPlacement() bool {
	return !p.IsPlaced && p.PlacementMatchesRemaining > 0
}

func (p *Player) GamesPlayed() int {
	return p.Wins + p.Losses
}

type byMMRDesc []Player

func (a byMMRDesc) Len() int {
	return len(a)
}

func (a byMMRDesc) Less(i, j int) bool {
	return a[i].MMR > a[j].MMR
}

func (a byMMRDesc) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

func (p *Player) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Player").SetMap(squirrel.Eq{
		"ID":                        p.ID,
		"CreatedAt":                 p.CreatedAt,
		"Username":                  p.Username,
		"MMR":                       p.MMR,
		"Wins":                      p.Wins,
		"Losses":                    p.Losses,
		"PlacementMatchesRemaining": p.PlacementMatchesRemaining,
		"IsPlaced":                  p.IsPlaced,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (p *Player) update(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Player").SetMap(squirrel.Eq{
		"Username":                  p.Username,
		"MMR":                       p.MMR,
		"Wins":                      p.Wins,
		"Losses":                    p.Losses,
		"PlacementMatchesRemaining": p.PlacementMatchesRemaining,
		"IsPlaced":                  p.IsPlaced,
	}).Where("Player.ID = ?", p.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getPlayerByID(tx *sqlx.Tx, id string) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		return Player{}, err
	}

	return ret, nil
}

func getPlayersByIDs(tx *sqlx.Tx, ids []string) ([]Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM Player WHERE Player.ID IN(?)`, ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	players := make([]Player, 0, len(ids))
	if err := tx.Select(&players, query, args...); err != nil {
		return nil, err
	}

	// Keep the requested order, SQL IN() does not.
	byID := make(map[string]Player, len(players))
	for k := range players {
		byID[players[k].ID] = players[k]
	}

	ret := make([]Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ret = append(ret, p)
		}
	}

	return ret, nil
}

// getOrCreatePlayer fetches a player by platform ID or registers it on the
// fly, keeping the stored username in sync with the platform display name.
func getOrCreatePlayer(tx *sqlx.Tx, id, username string) (Player, error) {
	player, err := getPlayerByID(tx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return Player{}, err
		}

		player = NewPlayer(id, username)
		if err := player.insert(tx); err != nil {
			return Player{}, err
		}

		return player, nil
	}

	if username != "" && player.Username != username {
		player.Username = username
		if err := player.update(tx); err != nil {
			return Player{}, err
		}
	}

	return player, nil
}

// GetPlayerStats returns the stored stats of a single player.
func (b *Back) GetPlayerStats(playerID string) (player Player, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByID(tx, playerID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlayerNotFound
		}
		return err
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

// GetLeaderboard returns placed players ordered by rating. Players still in
// their placement matches have a provisional rating and are not listed.
func (b *Back) GetLeaderboard(limit int) (players []Player, _ error) {
	if limit <= 0 {
		limit = 20
	}

	if err := b.transaction(func(tx *sqlx.Tx) error {
		return tx.Select(&players, `
            SELECT * FROM Player
            WHERE Player.IsPlaced = 1
            ORDER BY Player.MMR DESC, Player.Wins DESC
            LIMIT ?`,
			limit,
		)
	}); err != nil {
		return nil, err
	}

	return players, nil
}
