package bot

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/l8smu/rankedbot/internal/back"
)

func (bot *Bot) cmdStats(m *discordgo.Message, args []string, w io.Writer) error {
	playerID := m.Author.ID
	if len(args) > 0 {
		if id := parseMention(strings.Join(args, " ")); id != "" {
			playerID = id
		} else {
			return back.Error("mention the player whose stats you want")
		}
	}

	player, err := bot.back.GetPlayerStats(playerID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "**%s**\n", player.Username)
	if player.InPlacement() {
		fmt.Fprintf(
			w,
			"Unranked, %d placement matches left.\n",
			player.PlacementMatchesRemaining,
		)
	} else {
		fmt.Fprintf(w, "%d MMR\n", player.MMR)
	}

	fmt.Fprintf(w, "%d wins, %d losses over %d games", player.Wins, player.Losses, player.GamesPlayed())
	if played := player.GamesPlayed(); played > 0 {
		fmt.Fprintf(w, " (%.0f%% win rate)", 100*float64(player.Wins)/float64(played))
	}
	fmt.Fprint(w, ".")

	return nil
}

func (bot *Bot) cmdLeaderboard(_ *discordgo.Message, _ []string, w io.Writer) error {
	players, err := bot.back.GetLeaderboard(20)
	if err != nil {
		return err
	}

	if len(players) == 0 {
		fmt.Fprint(w, "No one has finished their placement matches yet.")
		return nil
	}

	var buf strings.Builder
	buf.WriteString("```\n")

	table := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', 0)
	fmt.Fprintln(table, "#\tname\tMMR\tW/L")
	for k, p := range players {
		fmt.Fprintf(table, "%d\t%s\t%d\t%d/%d\n", k+1, p.Username, p.MMR, p.Wins, p.Losses)
	}
	table.Flush()

	buf.WriteString("```")
	fmt.Fprint(w, buf.String())

	return nil
}

func (bot *Bot) cmdRecent(_ *discordgo.Message, _ []string, w io.Writer) error {
	matches, err := bot.back.GetRecentMatches(10)
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		fmt.Fprint(w, "No match has been played yet.")
		return nil
	}

	fmt.Fprint(w, "Recent matches:")
	for _, m := range matches {
		outcome, _ := m.Outcome()

		fmt.Fprintf(w, "\n- #%d (%s): %s", m.ID, m.Formation, outcome)
		if m.EndedAt.Valid {
			fmt.Fprintf(w, ", %s ago", time.Since(m.EndedAt.Time.Time()).Truncate(time.Minute))
		}
		if m.AdminModified {
			fmt.Fprint(w, " (admin modified)")
		}
	}

	return nil
}
