package bot

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/l8smu/rankedbot/internal/back"
)

func (bot *Bot) cmdDev(m *discordgo.Message, args []string, out io.Writer) error {
	if !bot.config.IsDiscordIDAdmin(m.Author.ID) {
		return fmt.Errorf("!dev command ran by a non-admin: %v", args)
	}
	if len(args) < 1 {
		return back.Error("need a subcommand")
	}

	switch args[0] { // nolint:gocritic
	case "panic":
		panic("an admin asked me to panic")
	case "uptime":
		fmt.Fprintf(out, "The bot has been online for %s", time.Since(bot.startedAt))
	case "error":
		return back.Error("here's your error")
	case "queuesize": // N
		if len(args) != 2 {
			return back.Error("expected 1 argument: N")
		}

		size, err := strconv.Atoi(args[1])
		if err != nil {
			return back.Error("the queue size must be a number")
		}
		if err := bot.back.SetQueueSize(size); err != nil {
			return err
		}

		fmt.Fprintf(out, "Matches are now %dv%d, the queue has been cleared.", size/2, size/2)
	case "url":
		fmt.Fprintf(
			out,
			"https://discordapp.com/api/oauth2/authorize?client_id=%s&scope=bot&permissions=%d",
			bot.dg.State.User.ID,
			discordgo.PermissionReadMessages|discordgo.PermissionSendMessages|
				discordgo.PermissionEmbedLinks|discordgo.PermissionManageMessages|
				discordgo.PermissionMentionEveryone,
		)
	}

	return nil
}
