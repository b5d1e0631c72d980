package bot

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/l8smu/rankedbot/internal/back"
)

func (bot *Bot) cmdRandom(m *discordgo.Message, _ []string, w io.Writer) error {
	group, err := bot.back.GroupForPlayer(m.Author.ID)
	if err != nil {
		return err
	}

	match, err := bot.back.ChooseRandomTeams(group.ID, m.Author.ID)
	if err != nil {
		return err
	}

	bot.rememberMatchChannel(match.ID, m.ChannelID)
	fmt.Fprintf(w, "Teams have been balanced, good luck in match #%d!", match.ID)

	return nil
}

func (bot *Bot) cmdDraft(m *discordgo.Message, _ []string, w io.Writer) error {
	group, err := bot.back.GroupForPlayer(m.Author.ID)
	if err != nil {
		return err
	}

	draft, match, err := bot.back.ChooseCaptainDraft(group.ID, m.Author.ID)
	if err != nil {
		return err
	}

	if draft == nil {
		// 1v1, nothing to pick
		bot.rememberMatchChannel(match.ID, m.ChannelID)
		fmt.Fprintf(w, "No one to draft in a 1v1, good luck in match #%d!", match.ID)
		return nil
	}

	fmt.Fprintf(
		w,
		"Captains are %s and %s, `!pick NAME` when it is your turn.",
		draft.Captains[0].Username, draft.Captains[1].Username,
	)

	return nil
}

func (bot *Bot) cmdPick(m *discordgo.Message, args []string, w io.Writer) error {
	if len(args) < 1 {
		return back.Error("you forgot to tell me who you want to pick")
	}

	draft, err := bot.back.DraftForPlayer(m.Author.ID)
	if err != nil {
		return err
	}

	pickedID, err := resolvePoolPlayer(draft, strings.Join(args, " "))
	if err != nil {
		return err
	}

	next, match, err := bot.back.PickDraftPlayer(draft.ID, m.Author.ID, pickedID)
	if err != nil {
		return err
	}

	if match != nil {
		bot.rememberMatchChannel(match.ID, m.ChannelID)
		fmt.Fprintf(w, "The draft is over, good luck in match #%d!", match.ID)
		return nil
	}

	fmt.Fprintf(w, "Picked! %s is up next.", next.CurrentCaptain().Username)

	return nil
}

// resolvePoolPlayer accepts either a Discord mention or a username, matched
// case-insensitively against the pickable pool.
func resolvePoolPlayer(draft back.DraftSession, raw string) (string, error) {
	if id := parseMention(raw); id != "" {
		for _, p := range draft.Pool {
			if p.ID == id {
				return p.ID, nil
			}
		}

		return "", back.ErrPlayerUnavailable
	}

	for _, p := range draft.Pool {
		if strings.EqualFold(p.Username, raw) {
			return p.ID, nil
		}
	}

	return "", back.ErrPlayerUnavailable
}

func parseMention(raw string) string {
	if !strings.HasPrefix(raw, "<@") || !strings.HasSuffix(raw, ">") {
		return ""
	}

	id := strings.TrimSuffix(strings.TrimPrefix(raw, "<@"), ">")

	// nickname mentions carry an extra bang
	return strings.TrimPrefix(id, "!")
}

// rememberMatchChannel stores the channel a match was formed in so end and
// cancel announcements land in the right place, even across a restart.
func (bot *Bot) rememberMatchChannel(matchID int64, channelID string) {
	if err := bot.back.AttachMatchChannel(matchID, channelID); err != nil {
		log.Printf("error: could not attach channel to match %d: %s", matchID, err)
	}
}
