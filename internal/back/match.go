package back

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/l8smu/rankedbot/internal/util"
	"gopkg.in/guregu/null.v4"
)

// MatchOutcome is the terminal result of a Match.
type MatchOutcome int

const ( // this is stored in DB, don't change values
	MatchOutcomeCancelled MatchOutcome = -1
	MatchOutcomeTie       MatchOutcome = 0
	MatchOutcomeTeam1     MatchOutcome = 1
	MatchOutcomeTeam2     MatchOutcome = 2
)

func (o MatchOutcome) String() string {
	switch o {
	case MatchOutcomeCancelled:
		return "cancelled"
	case MatchOutcomeTie:
		return "tie"
	case MatchOutcomeTeam1:
		return "team 1 victory"
	case MatchOutcomeTeam2:
		return "team 2 victory"
	default:
		return "pending"
	}
}

// Formation method labels, stored on the Match record.
const (
	FormationRandom = "balanced-random"
	FormationDraft  = "captain-draft"
)

// A MatchParticipant is a snapshot of a player at match formation time, the
// live Player row keeps moving while the match is played.
type MatchParticipant struct {
	PlayerID string
	Username string
	MMR      int
}

// A Match is two teams playing against each other. A pending Match has a NULL
// Winner, settlement writes the outcome and the applied rating deltas.
// The engine-enforced invariant is that Cancelled is always written together
// with MatchOutcomeCancelled, never with a NULL Winner: recovery treats a
// NULL Winner as "still active".
type Match struct {
	ID        int64
	CreatedAt util.TimeAsTimestamp
	EndedAt   util.NullTimeAsTimestamp

	Team1Players util.StringsAsCSV
	Team2Players util.StringsAsCSV

	Winner        null.Int // NULL while the match is being played
	WinnerDelta   int      // per-player rating magnitude applied at settlement
	LoserDelta    int
	AdminModified bool
	Cancelled     bool
	Formation     string

	// ChannelID is an opaque presentation handle, the engine stores it and
	// hands it back, nothing more.
	ChannelID null.String

	Team1 []MatchParticipant `db:"-"`
	Team2 []MatchParticipant `db:"-"`
}

func NewMatch(id int64, team1, team2 []Player, formation string) *Match {
	m := &Match{
		ID:        id,
		CreatedAt: util.TimeAsTimestamp(time.Now()),
		Formation: formation,
		Team1:     snapshotTeam(team1),
		Team2:     snapshotTeam(team2),
	}

	for _, p := range team1 {
		m.Team1Players = append(m.Team1Players, p.ID)
	}
	for _, p := range team2 {
		m.Team2Players = append(m.Team2Players, p.ID)
	}

	return m
}

func snapshotTeam(players []Player) []MatchParticipant {
	ret := make([]MatchParticipant, 0, len(players))
	for _, p := range players {
		ret = append(ret, MatchParticipant{
			PlayerID: p.ID,
			Username: p.Username,
			MMR:      p.MMR,
		})
	}

	return ret
}

func (m *Match) HasParticipant(playerID string) bool {
	for _, id := range m.ParticipantIDs() {
		if id == playerID {
			return true
		}
	}

	return false
}

func (m *Match) ParticipantIDs() []string {
	ids := make([]string, 0, len(m.Team1Players)+len(m.Team2Players))
	ids = append(ids, m.Team1Players...)
	ids = append(ids, m.Team2Players...)

	return ids
}

// VictoryOutcomeFor returns the outcome that means victory for the given
// participant, false if the player is not part of the match.
func (m *Match) VictoryOutcomeFor(playerID string) (MatchOutcome, bool) {
	for _, id := range m.Team1Players {
		if id == playerID {
			return MatchOutcomeTeam1, true
		}
	}
	for _, id := range m.Team2Players {
		if id == playerID {
			return MatchOutcomeTeam2, true
		}
	}

	return 0, false
}

// Outcome returns the recorded outcome, the second return value is false
// while the match is still being played.
func (m *Match) Outcome() (MatchOutcome, bool) {
	if !m.Winner.Valid {
		return 0, false
	}

	return MatchOutcome(m.Winner.Int64), true
}

func (m *Match) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Match").SetMap(squirrel.Eq{
		"ID":            m.ID,
		"CreatedAt":     m.CreatedAt,
		"EndedAt":       m.EndedAt,
		"Team1Players":  m.Team1Players,
		"Team2Players":  m.Team2Players,
		"Winner":        m.Winner,
		"WinnerDelta":   m.WinnerDelta,
		"LoserDelta":    m.LoserDelta,
		"AdminModified": m.AdminModified,
		"Cancelled":     m.Cancelled,
		"Formation":     m.Formation,
		"ChannelID":     m.ChannelID,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (m *Match) update(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Match").SetMap(squirrel.Eq{
		"EndedAt":       m.EndedAt,
		"Winner":        m.Winner,
		"WinnerDelta":   m.WinnerDelta,
		"LoserDelta":    m.LoserDelta,
		"AdminModified": m.AdminModified,
		"Cancelled":     m.Cancelled,
		"ChannelID":     m.ChannelID,
	}).Where("Match.ID = ?", m.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getMatchByID(tx *sqlx.Tx, id int64) (Match, error) {
	var ret Match
	query := `SELECT * FROM Match WHERE Match.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		return Match{}, err
	}

	return ret, nil
}

// AttachMatchChannel stores the presentation channel handle on an active
// match so it survives a restart.
func (b *Back) AttachMatchChannel(matchID int64, channelID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}

	m.ChannelID = null.StringFrom(channelID)

	return b.transaction(m.update)
}

// ActiveMatchForPlayer returns a snapshot of the active match the player is
// part of, if any.
func (b *Back) ActiveMatchForPlayer(playerID string) (Match, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, m := range b.matches {
		if m.HasParticipant(playerID) {
			return *m, nil
		}
	}

	return Match{}, ErrMatchNotFound
}

// GetActiveMatches returns a snapshot of the in-flight match registry.
func (b *Back) GetActiveMatches() []Match {
	b.mu.Lock()
	defer b.mu.Unlock()

	ret := make([]Match, 0, len(b.matches))
	for _, m := range b.matches {
		ret = append(ret, *m)
	}

	return ret
}

// GetRecentMatches returns the most recently settled matches.
func (b *Back) GetRecentMatches(limit int) (matches []Match, _ error) {
	if limit <= 0 {
		limit = 20
	}

	if err := b.transaction(func(tx *sqlx.Tx) error {
		err := tx.Select(&matches, `
            SELECT * FROM Match
            WHERE Match.Winner IS NOT NULL
            ORDER BY Match.EndedAt DESC
            LIMIT ?`,
			limit,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		// settled rows come back without their participant snapshots
		for k := range matches {
			team1, err := getPlayersByIDs(tx, matches[k].Team1Players.Slice())
			if err != nil {
				return err
			}
			team2, err := getPlayersByIDs(tx, matches[k].Team2Players.Slice())
			if err != nil {
				return err
			}

			matches[k].Team1 = snapshotTeam(team1)
			matches[k].Team2 = snapshotTeam(team2)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return matches, nil
}
