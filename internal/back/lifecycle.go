package back

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/l8smu/rankedbot/internal/util"
	"gopkg.in/guregu/null.v4"
)

// createMatchLocked allocates an identifier, persists the pending match and
// registers it. A failed insert is retried exactly once with a fresh
// identifier, which absorbs a duplicate-key race against rows created out of
// band; a second failure leaves no in-memory entry. Callers must hold b.mu.
func (b *Back) createMatchLocked(team1, team2 []Player, formation string) (*Match, error) {
	m := NewMatch(b.allocateMatchID(), team1, team2, formation)

	if err := b.transaction(m.insert); err != nil {
		log.Printf("warning: could not persist match %d, retrying with a fresh ID: %s", m.ID, err)

		m.ID = b.allocateMatchID()
		if err2 := b.transaction(m.insert); err2 != nil {
			return nil, fmt.Errorf("unable to persist match after retry: %w", err2)
		}
	}

	b.matches[m.ID] = m
	log.Printf("info: created match %d (%s)", m.ID, m.Formation)

	return m, nil
}

// ReportMatchOutcome settles an active match: it computes the rating change,
// applies it to every participant, persists the outcome, and only then drops
// the match from the registry so the participants can requeue immediately.
// The registry delete always precedes any notification or cleanup work.
func (b *Back) ReportMatchOutcome(
	matchID int64,
	actorID string,
	outcome MatchOutcome,
	asAdmin bool,
) (Match, RatingChange, error) {
	if outcome != MatchOutcomeTeam1 && outcome != MatchOutcomeTeam2 && outcome != MatchOutcomeTie {
		return Match{}, RatingChange{}, fmt.Errorf("invalid outcome %d", outcome)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.matches[matchID]
	if !ok {
		return Match{}, RatingChange{}, ErrMatchNotFound
	}

	if !asAdmin && !m.HasParticipant(actorID) {
		return Match{}, RatingChange{}, ErrNotAParticipant
	}

	// Settlement is staged on a copy, a rolled-back transaction must leave
	// the registry entry active and untouched.
	settled := *m
	var change RatingChange
	if err := b.transaction(func(tx *sqlx.Tx) error {
		team1, err := getPlayersByIDs(tx, m.Team1Players.Slice())
		if err != nil {
			return err
		}
		team2, err := getPlayersByIDs(tx, m.Team2Players.Slice())
		if err != nil {
			return err
		}

		change = ComputeRatingChange(team1, team2, outcome)
		if err := applySettlement(tx, team1, team2, outcome, change); err != nil {
			return err
		}

		settled.Winner = null.IntFrom(int64(outcome))
		settled.WinnerDelta = change.Winner
		settled.LoserDelta = change.Loser
		settled.EndedAt = util.NewNullTimeAsTimestamp(time.Now())

		return settled.update(tx)
	}); err != nil {
		return Match{}, RatingChange{}, err
	}

	*m = settled
	delete(b.matches, matchID)
	log.Printf("info: match %d settled: %s (%s)", m.ID, outcome, change.Classification)

	b.sendMatchEndNotifications(m, outcome, change)

	return *m, change, nil
}

// applySettlement mutates and persists every participant row. Ties apply no
// rating or W/L change but still count towards placement.
func applySettlement(
	tx *sqlx.Tx,
	team1, team2 []Player,
	outcome MatchOutcome,
	change RatingChange,
) error {
	winners, losers := team1, team2
	if outcome == MatchOutcomeTeam2 {
		winners, losers = team2, team1
	}

	for k := range winners {
		if outcome != MatchOutcomeTie {
			winners[k].MMR += change.Winner
			winners[k].Wins++
		}
		advancePlacement(&winners[k])

		if err := winners[k].update(tx); err != nil {
			return err
		}
	}

	for k := range losers {
		if outcome != MatchOutcomeTie {
			losers[k].MMR += change.Loser
			losers[k].Losses++
		}
		advancePlacement(&losers[k])

		if err := losers[k].update(tx); err != nil {
			return err
		}
	}

	return nil
}

// advancePlacement counts a settled match towards the placement series and
// flips the placed flag once it is over.
func advancePlacement(p *Player) {
	if !p.InPlacement() {
		return
	}

	p.PlacementMatchesRemaining--
	if p.PlacementMatchesRemaining == 0 {
		p.IsPlaced = true
		log.Printf("info: %s completed their placement matches at %d MMR", p.Username, p.MMR)
	}
}

// CancelMatch voids an active match with zero rating effect. Same
// deregistration ordering as ReportMatchOutcome.
func (b *Back) CancelMatch(matchID int64, actorID string, asAdmin bool) (Match, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.matches[matchID]
	if !ok {
		return Match{}, ErrMatchNotFound
	}

	if !asAdmin && !m.HasParticipant(actorID) {
		return Match{}, ErrNotAParticipant
	}

	cancelled := *m
	cancelled.Winner = null.IntFrom(int64(MatchOutcomeCancelled))
	cancelled.Cancelled = true
	cancelled.EndedAt = util.NewNullTimeAsTimestamp(time.Now())

	if err := b.transaction(cancelled.update); err != nil {
		return Match{}, err
	}

	*m = cancelled
	delete(b.matches, matchID)
	log.Printf("info: match %d cancelled by %s", m.ID, actorID)

	b.sendMatchCancelledNotification(m)

	return *m, nil
}

// AdminOverrideMatch rewrites the outcome of a settled or cancelled match.
// The previously applied deltas are reversed with the exact magnitude stored
// at settlement time, then the new outcome is applied on the corrected
// ratings. Re-applying the current outcome touches metadata only.
func (b *Back) AdminOverrideMatch(matchID int64, newOutcome MatchOutcome) (Match, RatingChange, error) {
	switch newOutcome {
	case MatchOutcomeTeam1, MatchOutcomeTeam2, MatchOutcomeTie, MatchOutcomeCancelled:
	default:
		return Match{}, RatingChange{}, fmt.Errorf("invalid outcome %d", newOutcome)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.matches[matchID]; ok {
		return Match{}, RatingChange{}, ErrMatchStillActive
	}

	var (
		m      Match
		change RatingChange
	)

	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		m, err = getMatchByID(tx, matchID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMatchNotFound
			}
			return err
		}

		previous, settled := m.Outcome()
		if !settled {
			return ErrMatchStillActive
		}

		m.AdminModified = true
		m.EndedAt = util.NewNullTimeAsTimestamp(time.Now())

		if previous == newOutcome {
			// idempotent on ratings, metadata still moves
			return m.update(tx)
		}

		team1, err := getPlayersByIDs(tx, m.Team1Players.Slice())
		if err != nil {
			return err
		}
		team2, err := getPlayersByIDs(tx, m.Team2Players.Slice())
		if err != nil {
			return err
		}

		reverseSettlement(team1, team2, previous, m.WinnerDelta, m.LoserDelta)

		if newOutcome == MatchOutcomeTeam1 || newOutcome == MatchOutcomeTeam2 {
			change = ComputeRatingChange(team1, team2, newOutcome)
			applyOverride(team1, team2, newOutcome, change)
		}

		for k := range team1 {
			if err := team1[k].update(tx); err != nil {
				return err
			}
		}
		for k := range team2 {
			if err := team2[k].update(tx); err != nil {
				return err
			}
		}

		m.Winner = null.IntFrom(int64(newOutcome))
		m.WinnerDelta = change.Winner
		m.LoserDelta = change.Loser
		m.Cancelled = newOutcome == MatchOutcomeCancelled

		return m.update(tx)
	}); err != nil {
		return Match{}, RatingChange{}, err
	}

	log.Printf("info: match %d overridden to %s", m.ID, newOutcome)

	return m, change, nil
}

// reverseSettlement undoes the rating and W/L effects of a previously
// recorded outcome, using the stored per-player magnitudes.
func reverseSettlement(team1, team2 []Player, previous MatchOutcome, winnerDelta, loserDelta int) {
	var winners, losers []Player
	switch previous {
	case MatchOutcomeTeam1:
		winners, losers = team1, team2
	case MatchOutcomeTeam2:
		winners, losers = team2, team1
	default:
		// ties and cancellations applied nothing
		return
	}

	for k := range winners {
		winners[k].MMR -= winnerDelta
		winners[k].Wins--
	}
	for k := range losers {
		losers[k].MMR -= loserDelta
		losers[k].Losses--
	}
}

// applyOverride applies a fresh outcome's deltas without touching placement
// counters, those only move at first settlement.
func applyOverride(team1, team2 []Player, outcome MatchOutcome, change RatingChange) {
	winners, losers := team1, team2
	if outcome == MatchOutcomeTeam2 {
		winners, losers = team2, team1
	}

	for k := range winners {
		winners[k].MMR += change.Winner
		winners[k].Wins++
	}
	for k := range losers {
		losers[k].MMR += change.Loser
		losers[k].Losses++
	}
}
