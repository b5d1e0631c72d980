package back

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/l8smu/rankedbot/internal/util"
	"gopkg.in/guregu/null.v4"
)

// RestoreActiveMatches rebuilds the in-memory match registry from the store.
// It runs once at process start, before the presentation layer comes up.
//
// Rows with a NULL Winner are the matches that were being played when the
// process died. A row whose teams cannot be resolved back to the configured
// team size is unsalvageable: it is cancelled in-store on the spot so it can
// never block a participant, and startup continues with the rest.
func (b *Back) RestoreActiveMatches() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var restored, cancelled int

	if err := b.transaction(func(tx *sqlx.Tx) error {
		var rows []Match
		if err := tx.Select(&rows, `SELECT * FROM Match WHERE Match.Winner IS NULL`); err != nil {
			return err
		}

		for k := range rows {
			m := rows[k]

			team1, err := getPlayersByIDs(tx, m.Team1Players.Slice())
			if err != nil {
				return err
			}
			team2, err := getPlayersByIDs(tx, m.Team2Players.Slice())
			if err != nil {
				return err
			}

			teamSize := b.config.TeamSize()
			if len(team1) != teamSize || len(team2) != teamSize {
				log.Printf(
					"warning: match %d has corrupt team data (%d/%d players, expected %d), cancelling",
					m.ID, len(team1), len(team2), teamSize,
				)

				if err := forceCancelMatch(tx, &m); err != nil {
					return err
				}
				cancelled++

				continue
			}

			m.Team1 = snapshotTeam(team1)
			m.Team2 = snapshotTeam(team2)
			b.matches[m.ID] = &m

			if m.ID > b.lastMatchID {
				b.lastMatchID = m.ID
			}
			restored++
		}

		return nil
	}); err != nil {
		return err
	}

	log.Printf("info: restored %d active matches, cancelled %d corrupt ones", restored, cancelled)

	return nil
}

// forceCancelMatch writes the cancelled outcome pair in one go, a cancelled
// row must never be left with a NULL Winner.
func forceCancelMatch(tx *sqlx.Tx, m *Match) error {
	m.Winner = null.IntFrom(int64(MatchOutcomeCancelled))
	m.Cancelled = true
	m.EndedAt = util.NewNullTimeAsTimestamp(time.Now())

	return m.update(tx)
}
