package back // nolint:testpackage

import (
	"errors"
	"testing"
)

// formTestMatch inserts placed veterans with the given ratings, queues them
// all, and resolves the pop with the balanced split.
func formTestMatch(t *testing.T, back *Back, mmrs ...int) *Match {
	t.Helper()

	players := make([]Player, 0, len(mmrs))
	for k, mmr := range mmrs {
		id := string(rune('a' + k))
		players = append(players, testPlayer(id, "player#"+id, mmr))
	}
	insertTestPlayers(t, back, players...)

	for _, p := range players {
		if _, err := back.JoinQueue(p.ID, ""); err != nil {
			t.Fatal(err)
		}
	}

	group := onlyGroup(t, back)
	match, err := back.ChooseRandomTeams(group.ID, players[0].ID)
	if err != nil {
		t.Fatal(err)
	}

	return match
}

func TestReportMatchOutcome(t *testing.T) {
	back := createTestBack(t, 4)
	match := formTestMatch(t, back, 1500, 1300, 1100, 900)

	if len(match.Team1) != 2 || len(match.Team2) != 2 {
		t.Fatalf("expected a 2v2, got %dv%d", len(match.Team1), len(match.Team2))
	}

	settled, change, err := back.ReportMatchOutcome(match.ID, match.Team1[0].PlayerID, MatchOutcomeTeam1, false)
	if err != nil {
		t.Fatal(err)
	}

	if outcome, ok := settled.Outcome(); !ok || outcome != MatchOutcomeTeam1 {
		t.Errorf("settled outcome = %v, %v", outcome, ok)
	}
	if settled.WinnerDelta != change.Winner || settled.LoserDelta != change.Loser {
		t.Errorf("stored deltas %+d/%+d do not match applied change %+d/%+d",
			settled.WinnerDelta, settled.LoserDelta, change.Winner, change.Loser)
	}
	if !settled.EndedAt.Valid {
		t.Error("settled match must have an end timestamp")
	}

	winner, err := back.GetPlayerStats(settled.Team1[0].PlayerID)
	if err != nil {
		t.Fatal(err)
	}
	if winner.MMR != settled.Team1[0].MMR+change.Winner {
		t.Errorf("winner MMR = %d, want %d", winner.MMR, settled.Team1[0].MMR+change.Winner)
	}
	if winner.Wins != 21 {
		t.Errorf("winner W = %d, want 21", winner.Wins)
	}

	loser, err := back.GetPlayerStats(settled.Team2[0].PlayerID)
	if err != nil {
		t.Fatal(err)
	}
	if loser.MMR != settled.Team2[0].MMR+change.Loser {
		t.Errorf("loser MMR = %d, want %d", loser.MMR, settled.Team2[0].MMR+change.Loser)
	}
	if loser.Losses != 16 {
		t.Errorf("loser L = %d, want 16", loser.Losses)
	}
}

func TestReportMatchOutcomeFreesParticipantsImmediately(t *testing.T) {
	back := createTestBack(t, 2)
	match := formTestMatch(t, back, 1200, 1100)

	if _, _, err := back.ReportMatchOutcome(match.ID, "a", MatchOutcomeTeam2, false); err != nil {
		t.Fatal(err)
	}

	// no LeaveQueue, no delay, straight back in
	for _, id := range []string{"a", "b"} {
		if _, err := back.JoinQueue(id, ""); err != nil {
			t.Errorf("%s could not requeue after settlement: %v", id, err)
		}
	}
}

func TestReportMatchOutcomeAuthorization(t *testing.T) {
	back := createTestBack(t, 2)
	insertTestPlayers(t, back, testPlayer("z", "Impa", 1000))
	match := formTestMatch(t, back, 1200, 1100)

	if _, _, err := back.ReportMatchOutcome(match.ID, "z", MatchOutcomeTeam1, false); !errors.Is(err, ErrNotAParticipant) {
		t.Errorf("expected ErrNotAParticipant, got %v", err)
	}

	// admins can settle matches they are not in
	if _, _, err := back.ReportMatchOutcome(match.ID, "z", MatchOutcomeTeam1, true); err != nil {
		t.Errorf("admin settlement failed: %v", err)
	}
}

func TestReportMatchOutcomeOnSettledMatch(t *testing.T) {
	back := createTestBack(t, 2)
	match := formTestMatch(t, back, 1200, 1100)

	if _, _, err := back.ReportMatchOutcome(match.ID, "a", MatchOutcomeTeam1, false); err != nil {
		t.Fatal(err)
	}

	if _, _, err := back.ReportMatchOutcome(match.ID, "a", MatchOutcomeTeam2, false); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound on a settled match, got %v", err)
	}
}

func TestReportMatchOutcomeTie(t *testing.T) {
	back := createTestBack(t, 2)
	match := formTestMatch(t, back, 1200, 1100)

	_, change, err := back.ReportMatchOutcome(match.ID, "a", MatchOutcomeTie, false)
	if err != nil {
		t.Fatal(err)
	}
	if change.Winner != 0 || change.Loser != 0 {
		t.Errorf("tie applied %+d/%+d", change.Winner, change.Loser)
	}

	for _, id := range []string{"a", "b"} {
		p, err := back.GetPlayerStats(id)
		if err != nil {
			t.Fatal(err)
		}
		if p.Wins != 20 || p.Losses != 15 {
			t.Errorf("%s W/L moved on a tie: %d/%d", id, p.Wins, p.Losses)
		}
	}
}

func TestTieAdvancesPlacement(t *testing.T) {
	back := createTestBack(t, 2)

	// both players go through the engine unseeded, placement series active
	if _, err := back.JoinQueue("a", "Darunia"); err != nil {
		t.Fatal(err)
	}
	if _, err := back.JoinQueue("b", "Nabooru"); err != nil {
		t.Fatal(err)
	}
	group := onlyGroup(t, back)
	match, err := back.ChooseRandomTeams(group.ID, "a")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := back.ReportMatchOutcome(match.ID, "a", MatchOutcomeTie, false); err != nil {
		t.Fatal(err)
	}

	p, err := back.GetPlayerStats("a")
	if err != nil {
		t.Fatal(err)
	}
	if p.PlacementMatchesRemaining != PlacementMatchesCount-1 {
		t.Errorf("placement remaining = %d, want %d", p.PlacementMatchesRemaining, PlacementMatchesCount-1)
	}
}

func TestCancelMatch(t *testing.T) {
	back := createTestBack(t, 2)
	match := formTestMatch(t, back, 1200, 1100)

	cancelled, err := back.CancelMatch(match.ID, "b", false)
	if err != nil {
		t.Fatal(err)
	}

	if outcome, ok := cancelled.Outcome(); !ok || outcome != MatchOutcomeCancelled {
		t.Errorf("cancelled outcome = %v, %v", outcome, ok)
	}
	if !cancelled.Cancelled {
		t.Error("Cancelled flag must be set together with the cancelled outcome")
	}

	// zero rating effect
	for _, participant := range []struct {
		id  string
		mmr int
	}{{"a", 1200}, {"b", 1100}} {
		p, err := back.GetPlayerStats(participant.id)
		if err != nil {
			t.Fatal(err)
		}
		if p.MMR != participant.mmr {
			t.Errorf("%s MMR = %d after cancel, want %d", participant.id, p.MMR, participant.mmr)
		}
		if p.Wins != 20 || p.Losses != 15 {
			t.Errorf("%s W/L moved on cancel: %d/%d", participant.id, p.Wins, p.Losses)
		}
	}

	// cancelled participants are free again
	if _, err := back.JoinQueue("a", ""); err != nil {
		t.Errorf("requeue after cancel failed: %v", err)
	}
}

func TestAdminOverrideMatch(t *testing.T) {
	back := createTestBack(t, 2)
	match := formTestMatch(t, back, 1200, 1100)

	// cannot override a match still being played
	if _, _, err := back.AdminOverrideMatch(match.ID, MatchOutcomeTeam2); !errors.Is(err, ErrMatchStillActive) {
		t.Fatalf("expected ErrMatchStillActive, got %v", err)
	}

	settled, change, err := back.ReportMatchOutcome(match.ID, "a", MatchOutcomeTeam1, false)
	if err != nil {
		t.Fatal(err)
	}

	winnerID := settled.Team1[0].PlayerID
	loserID := settled.Team2[0].PlayerID
	baseWinner, baseLoser := settled.Team1[0].MMR, settled.Team2[0].MMR

	overridden, newChange, err := back.AdminOverrideMatch(match.ID, MatchOutcomeTeam2)
	if err != nil {
		t.Fatal(err)
	}
	if !overridden.AdminModified {
		t.Error("override must set the AdminModified flag")
	}
	if outcome, _ := overridden.Outcome(); outcome != MatchOutcomeTeam2 {
		t.Errorf("overridden outcome = %s", outcome)
	}

	// the original deltas are reversed exactly, then the new outcome applied
	p1, err := back.GetPlayerStats(winnerID)
	if err != nil {
		t.Fatal(err)
	}
	if want := baseWinner + newChange.Loser; p1.MMR != want {
		t.Errorf("former winner MMR = %d, want %d (reversed %+d, applied %+d)",
			p1.MMR, want, change.Winner, newChange.Loser)
	}
	if p1.Wins != 20 || p1.Losses != 16 {
		t.Errorf("former winner W/L = %d/%d, want 20/16", p1.Wins, p1.Losses)
	}

	p2, err := back.GetPlayerStats(loserID)
	if err != nil {
		t.Fatal(err)
	}
	if want := baseLoser + newChange.Winner; p2.MMR != want {
		t.Errorf("former loser MMR = %d, want %d", p2.MMR, want)
	}
	if p2.Wins != 21 || p2.Losses != 15 {
		t.Errorf("former loser W/L = %d/%d, want 21/15", p2.Wins, p2.Losses)
	}
}

func TestAdminOverrideSameOutcomeIsIdempotent(t *testing.T) {
	back := createTestBack(t, 2)
	match := formTestMatch(t, back, 1200, 1100)

	settled, _, err := back.ReportMatchOutcome(match.ID, "a", MatchOutcomeTeam1, false)
	if err != nil {
		t.Fatal(err)
	}

	winnerID := settled.Team1[0].PlayerID
	before, err := back.GetPlayerStats(winnerID)
	if err != nil {
		t.Fatal(err)
	}

	overridden, _, err := back.AdminOverrideMatch(match.ID, MatchOutcomeTeam1)
	if err != nil {
		t.Fatal(err)
	}
	if !overridden.AdminModified {
		t.Error("AdminModified must be set even on a no-op override")
	}

	after, err := back.GetPlayerStats(winnerID)
	if err != nil {
		t.Fatal(err)
	}
	if after.MMR != before.MMR || after.Wins != before.Wins || after.Losses != before.Losses {
		t.Error("re-applying the recorded outcome must not touch ratings")
	}
}

func TestAdminOverrideMissingMatch(t *testing.T) {
	back := createTestBack(t, 2)

	if _, _, err := back.AdminOverrideMatch(4242, MatchOutcomeTie); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestAdminOverrideCancelledMatchToVictory(t *testing.T) {
	back := createTestBack(t, 2)
	match := formTestMatch(t, back, 1200, 1100)

	cancelled, err := back.CancelMatch(match.ID, "a", false)
	if err != nil {
		t.Fatal(err)
	}

	overridden, change, err := back.AdminOverrideMatch(match.ID, MatchOutcomeTeam1)
	if err != nil {
		t.Fatal(err)
	}
	if overridden.Cancelled {
		t.Error("override to a victory must clear the Cancelled flag")
	}
	if change.Winner <= 0 {
		t.Errorf("expected a positive winner delta, got %+d", change.Winner)
	}

	p, err := back.GetPlayerStats(cancelled.Team1[0].PlayerID)
	if err != nil {
		t.Fatal(err)
	}
	if want := cancelled.Team1[0].MMR + change.Winner; p.MMR != want {
		t.Errorf("winner MMR = %d, want %d", p.MMR, want)
	}
}

func TestFailedPersistKeepsMatchActive(t *testing.T) {
	back := createTestBack(t, 2)
	match := formTestMatch(t, back, 1200, 1100)

	// make every Match write fail mid-transaction
	if _, err := back.db.Exec(`DROP TABLE Match`); err != nil {
		t.Fatal(err)
	}

	if _, _, err := back.ReportMatchOutcome(match.ID, "a", MatchOutcomeTeam1, false); err == nil {
		t.Fatal("settlement should have failed")
	}
	if _, err := back.CancelMatch(match.ID, "a", false); err == nil {
		t.Fatal("cancellation should have failed")
	}

	active, ok := back.matches[match.ID]
	if !ok {
		t.Fatal("a failed persist must keep the match registered")
	}
	if _, settled := active.Outcome(); settled {
		t.Error("a failed persist must not leave the match looking settled")
	}
	if active.Cancelled || active.EndedAt.Valid || active.WinnerDelta != 0 {
		t.Error("a failed persist must leave the registry entry untouched")
	}
}

func TestMatchLifecycleReferenceScenario(t *testing.T) {
	back := createTestBack(t, 4)
	match := formTestMatch(t, back, 1500, 1300, 1100, 900)

	// the split is perfectly balanced, P = 0.5 and no damping applies
	_, change, err := back.ReportMatchOutcome(match.ID, "a", MatchOutcomeTeam1, false)
	if err != nil {
		t.Fatal(err)
	}

	if change.Gap != 0 {
		t.Errorf("expected a zero-gap match, got %v", change.Gap)
	}
	if change.Classification != ClassificationBalanced {
		t.Errorf("classified %q", change.Classification)
	}
	if change.Winner != -change.Loser {
		t.Errorf("balanced match deltas should mirror: %+d/%+d", change.Winner, change.Loser)
	}
}
