package bot

import (
	"fmt"
	"io"
	"log"

	"github.com/l8smu/rankedbot/internal/back"
)

// consumeNotifications drains the engine's notification channel for as long
// as the bot runs. A notification that cannot be delivered is logged and
// dropped, the engine does not wait for us.
func (bot *Bot) consumeNotifications(done <-chan struct{}) {
	for {
		select {
		case notif := <-bot.back.Notifications():
			if err := bot.sendNotification(&notif); err != nil {
				log.Printf("error: unable to send notification: %s", err)
			}
		case <-done:
			return
		}
	}
}

func (bot *Bot) sendNotification(notif *back.Notification) error {
	w, err := bot.getWriterForNotification(notif)
	if err != nil {
		return err
	}
	if w == nil {
		log.Printf("warning: no writer for notification: %s", notif.String())
		return nil
	}
	defer w.Flush()

	_, err = io.Copy(w, notif)

	return err
}

func (bot *Bot) getWriterForNotification(notif *back.Notification) (*channelWriter, error) {
	switch notif.RecipientType {
	case back.NotificationRecipientTypeQueueChannel:
		return newChannelWriter(bot.dg, bot.queueChannelID()), nil
	case back.NotificationRecipientTypeMatchChannel:
		return newChannelWriter(bot.dg, notif.Recipient), nil
	case back.NotificationRecipientTypeUser:
		return newUserChannelWriter(bot.dg, notif.Recipient)
	default:
		return nil, fmt.Errorf("cannot handle recipient type: %d", notif.RecipientType)
	}
}

// queueChannelID is where queue traffic (pops, timeouts, draft turns) lands,
// the first configured listen channel by convention.
func (bot *Bot) queueChannelID() string {
	if len(bot.config.DiscordListenIDs) == 0 {
		return ""
	}

	return bot.config.DiscordListenIDs[0]
}
