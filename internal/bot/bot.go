package bot

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/l8smu/rankedbot/internal/back"
	"github.com/l8smu/rankedbot/internal/config"
)

type commandHandler func(m *discordgo.Message, args []string, w io.Writer) error

type Bot struct {
	back   *back.Back
	config *config.Config

	startedAt time.Time
	dg        *discordgo.Session
	limiter   *commandLimiter

	handlers map[string]commandHandler
}

func New(b *back.Back, conf *config.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + conf.DiscordToken)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		back:      b,
		config:    conf,
		dg:        dg,
		limiter:   newCommandLimiter(),
		startedAt: time.Now(),
	}

	dg.AddHandler(bot.handleMessage)

	bot.handlers = map[string]commandHandler{
		"!help":        bot.cmdHelp,
		"!dev":         bot.cmdDev,
		"!stats":       bot.cmdStats,
		"!leaderboard": bot.cmdLeaderboard,
		"!recent":      bot.cmdRecent,

		"!join":   bot.cmdJoin,
		"!leave":  bot.cmdLeave,
		"!queue":  bot.cmdQueue,
		"!random": bot.cmdRandom,
		"!draft":  bot.cmdDraft,
		"!pick":   bot.cmdPick,

		"!win":      bot.cmdWin,
		"!loss":     bot.cmdLoss,
		"!tie":      bot.cmdTie,
		"!cancel":   bot.cmdCancel,
		"!override": bot.cmdOverride,
	}

	return bot, nil
}

func (bot *Bot) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	log.Println("info: starting Discord bot")
	wg.Add(1)
	defer wg.Done()
	if err := bot.dg.Open(); err != nil {
		log.Panic(err)
	}

	go bot.consumeNotifications(done)

	<-done

	if err := bot.dg.Close(); err != nil {
		log.Printf("error: could not close Discord bot: %s", err)
	}
}

func (bot *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore webhooks, self, bots, non-commands.
	if m.Author == nil || m.Author.ID == s.State.User.ID ||
		m.Author.Bot || !strings.HasPrefix(m.Content, "!") {
		return
	}

	if bot.config.IsDiscordIDBanned(m.Author.ID) {
		return
	}

	if !bot.limiter.allow(m.Author.ID) {
		log.Printf("warning: rate-limited %s(%s)", m.Author.String(), m.Author.ID)
		return
	}

	if !bot.shouldListenOn(s, m.ChannelID) {
		return
	}

	log.Printf(
		"info: <%s(%s)@%s#%s> %s",
		m.Author.String(), m.Author.ID,
		m.GuildID, m.ChannelID,
		m.Content,
	)

	out := newChannelWriter(s, m.ChannelID)
	defer func() {
		if err := out.Flush(); err != nil {
			log.Printf("error: could not send message: %s", err)
		}
	}()

	defer func() {
		r := recover()
		if r != nil {
			out.Reset()
			fmt.Fprint(out, "Something went very wrong, please tell an admin.")
			log.Print("panic: ", r)
			log.Print(debug.Stack())
		}
	}()

	if err := bot.dispatch(m.Message, out); err != nil {
		out.Reset()

		var publicErr back.Error
		if errors.As(err, &publicErr) {
			fmt.Fprintf(out, "<@%s> %s", m.Author.ID, publicErr)
		} else {
			fmt.Fprint(out, "There was an error processing your command, an admin will check the logs.")
		}

		log.Printf("error: failed to process command: %s", err)
	}
}

// shouldListenOn restricts guild commands to the configured channels, private
// messages always go through.
func (bot *Bot) shouldListenOn(s *discordgo.Session, channelID string) bool {
	if len(bot.config.DiscordListenIDs) == 0 {
		return true
	}

	for _, id := range bot.config.DiscordListenIDs {
		if id == channelID {
			return true
		}
	}

	channel, err := s.Channel(channelID)
	if err != nil {
		log.Printf("error: could not fetch channel %s: %s", channelID, err)
		return false
	}

	return channel.Type == discordgo.ChannelTypeDM
}

func parseCommand(cmd string) (string, []string) {
	parts := strings.Split(cmd, " ")

	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	default:
		return parts[0], parts[1:]
	}
}

func (bot *Bot) dispatch(m *discordgo.Message, w io.Writer) error {
	command, args := parseCommand(m.Content)
	handler, ok := bot.handlers[command]
	if !ok {
		return back.Error(fmt.Sprintf("invalid command: %v", m.Content))
	}

	return handler(m, args, w)
}

func (bot *Bot) cmdHelp(m *discordgo.Message, _ []string, w io.Writer) error {
	fmt.Fprint(w, strings.ReplaceAll(`Available commands:
'''
# Queue
!join              # join the matchmaking queue
!leave             # leave the queue
!queue             # show who is waiting

# Team selection (once the queue pops)
!random            # balanced random teams
!draft             # captain draft, top 2 rated players pick
!pick NAME         # as captain, pick NAME onto your team

# Match
!win               # report a victory for your team
!loss              # report a loss for your team
!tie               # report a tie
!cancel            # void the match, no rating change

# Stats
!stats [NAME]      # your (or NAME's) rating and record
!leaderboard       # placed players by rating
!recent            # recently completed matches
'''`, "'''", "```"))

	if !bot.config.IsDiscordIDAdmin(m.Author.ID) {
		return nil
	}

	fmt.Fprint(w, strings.ReplaceAll(`Admin-only commands:
'''
!override ID OUTCOME   # rewrite a completed match, OUTCOME is team1|team2|tie|cancel
!dev error             error out
!dev panic             panic and abort
!dev uptime            display for how long the server has been running
!dev queuesize N       set the queue pop size (clears the queue)
!dev url               display the link to use when adding the bot to a new server
'''`, "'''", "```"))

	return nil
}
