package bot

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/l8smu/rankedbot/internal/back"
)

func (bot *Bot) cmdWin(m *discordgo.Message, _ []string, w io.Writer) error {
	return bot.reportOwnMatch(m, w, true)
}

func (bot *Bot) cmdLoss(m *discordgo.Message, _ []string, w io.Writer) error {
	return bot.reportOwnMatch(m, w, false)
}

// reportOwnMatch settles the caller's active match relative to their own
// team: !win means "my team won", !loss the opposite.
func (bot *Bot) reportOwnMatch(m *discordgo.Message, w io.Writer, victory bool) error {
	match, err := bot.back.ActiveMatchForPlayer(m.Author.ID)
	if err != nil {
		return err
	}

	outcome, ok := match.VictoryOutcomeFor(m.Author.ID)
	if !ok {
		return back.ErrNotAParticipant
	}
	if !victory {
		if outcome == back.MatchOutcomeTeam1 {
			outcome = back.MatchOutcomeTeam2
		} else {
			outcome = back.MatchOutcomeTeam1
		}
	}

	settled, change, err := bot.back.ReportMatchOutcome(match.ID, m.Author.ID, outcome, false)
	if err != nil {
		return err
	}

	writeMatchResult(w, settled, change)

	return nil
}

func (bot *Bot) cmdTie(m *discordgo.Message, _ []string, w io.Writer) error {
	match, err := bot.back.ActiveMatchForPlayer(m.Author.ID)
	if err != nil {
		return err
	}

	settled, change, err := bot.back.ReportMatchOutcome(match.ID, m.Author.ID, back.MatchOutcomeTie, false)
	if err != nil {
		return err
	}

	writeMatchResult(w, settled, change)

	return nil
}

func (bot *Bot) cmdCancel(m *discordgo.Message, _ []string, w io.Writer) error {
	match, err := bot.back.ActiveMatchForPlayer(m.Author.ID)
	if err != nil {
		return err
	}

	if _, err := bot.back.CancelMatch(match.ID, m.Author.ID, false); err != nil {
		return err
	}

	fmt.Fprintf(w, "Match #%d has been voided, no rating change was applied.", match.ID)

	return nil
}

func (bot *Bot) cmdOverride(m *discordgo.Message, args []string, w io.Writer) error {
	if !bot.config.IsDiscordIDAdmin(m.Author.ID) {
		return fmt.Errorf("!override ran by non-admin %s", m.Author.ID)
	}
	if len(args) != 2 {
		return back.Error("expected 2 arguments: ID team1|team2|tie|cancel")
	}

	matchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return back.Error("the match ID must be a number")
	}

	var outcome back.MatchOutcome
	switch args[1] {
	case "team1":
		outcome = back.MatchOutcomeTeam1
	case "team2":
		outcome = back.MatchOutcomeTeam2
	case "tie":
		outcome = back.MatchOutcomeTie
	case "cancel":
		outcome = back.MatchOutcomeCancelled
	default:
		return back.Error("the outcome must be one of team1, team2, tie, cancel")
	}

	overridden, change, err := bot.back.AdminOverrideMatch(matchID, outcome)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Match #%d is now recorded as: %s.", overridden.ID, outcome)
	if outcome == back.MatchOutcomeTeam1 || outcome == back.MatchOutcomeTeam2 {
		fmt.Fprintf(w, "\nWinners: %+d MMR, losers: %d MMR.", change.Winner, change.Loser)
	}

	return nil
}

func writeMatchResult(w io.Writer, m back.Match, change back.RatingChange) {
	outcome, _ := m.Outcome()

	fmt.Fprintf(w, "Match #%d is over: %s (%s).", m.ID, outcome, change.Classification)
	if outcome != back.MatchOutcomeTie {
		fmt.Fprintf(w, "\nWinners: %+d MMR, losers: %d MMR.", change.Winner, change.Loser)
	}
	fmt.Fprint(w, "\nEveryone is free to `!join` again.")
}
