package bot

import (
	"fmt"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/l8smu/rankedbot/internal/util"
)

func (bot *Bot) cmdJoin(m *discordgo.Message, _ []string, w io.Writer) error {
	state, err := bot.back.JoinQueue(m.Author.ID, m.Author.Username)
	if err != nil {
		return err
	}

	if len(state.Entries) == 0 {
		// the join filled the queue, the pop announcement does the talking
		return nil
	}

	fmt.Fprintf(
		w,
		"%s joined the queue (%d/%d).",
		m.Author.Username, len(state.Entries), state.Capacity,
	)

	return nil
}

func (bot *Bot) cmdLeave(m *discordgo.Message, _ []string, w io.Writer) error {
	state, err := bot.back.LeaveQueue(m.Author.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(
		w,
		"%s left the queue (%d/%d).",
		m.Author.Username, len(state.Entries), state.Capacity,
	)

	return nil
}

func (bot *Bot) cmdQueue(_ *discordgo.Message, _ []string, w io.Writer) error {
	state := bot.back.QueueStatus()

	if len(state.Entries) == 0 {
		fmt.Fprint(w, "The queue is empty, `!join` to get a match going.")
		return nil
	}

	fmt.Fprintf(w, "%d/%d players in queue:", len(state.Entries), state.Capacity)
	for _, e := range state.Entries {
		fmt.Fprintf(w, "\n- %s (%d MMR)", e.Player.Username, e.Player.MMR)
	}

	idle := time.Since(state.IdleSince).Truncate(time.Second)
	if left := state.Timeout - idle; left > 0 {
		fmt.Fprintf(w, "\nThe queue clears in %s unless someone joins or leaves.", util.FormatDuration(left))
	}

	return nil
}
