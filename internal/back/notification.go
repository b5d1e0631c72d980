package back

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
)

type NotificationRecipientType int

const (
	// NotificationRecipientTypeQueueChannel targets the channel the
	// presentation layer uses for queue traffic, the recipient is empty.
	NotificationRecipientTypeQueueChannel NotificationRecipientType = 0
	// NotificationRecipientTypeMatchChannel targets the opaque channel
	// handle stored on a Match.
	NotificationRecipientTypeMatchChannel NotificationRecipientType = 1
	NotificationRecipientTypeUser         NotificationRecipientType = 2
)

type NotificationType int

const (
	NotificationTypeQueueUpdate NotificationType = iota
	NotificationTypeQueueTimeout
	NotificationTypeTeamSelection
	NotificationTypeDraftTurn
	NotificationTypeMatchFormed
	NotificationTypeMatchEnd
	NotificationTypeMatchCancelled
)

type Notification struct {
	RecipientType NotificationRecipientType
	Recipient     string
	Type          NotificationType

	body bytes.Buffer
}

func (n *Notification) Printf(str string, args ...interface{}) (int, error) {
	return fmt.Fprintf(&n.body, str, args...)
}

func (n *Notification) Print(args ...interface{}) (int, error) {
	return fmt.Fprint(&n.body, args...)
}

func (n *Notification) Read(p []byte) (int, error) {
	return n.body.Read(p)
}

func NotificationTypeName(typ NotificationType) string {
	switch typ {
	case NotificationTypeQueueUpdate:
		return "QueueUpdate"
	case NotificationTypeQueueTimeout:
		return "QueueTimeout"
	case NotificationTypeTeamSelection:
		return "TeamSelection"
	case NotificationTypeDraftTurn:
		return "DraftTurn"
	case NotificationTypeMatchFormed:
		return "MatchFormed"
	case NotificationTypeMatchEnd:
		return "MatchEnd"
	case NotificationTypeMatchCancelled:
		return "MatchCancelled"
	default:
		return "invalid"
	}
}

// For debugging purposes only.
func (n *Notification) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(
		&buf,
		"type %s, recipient type %d \"%s\"",
		NotificationTypeName(n.Type),
		n.RecipientType,
		n.Recipient,
	)

	// HACK: Ensure its on one line (and safe to print)
	content, _ := json.Marshal(n.body.String())
	fmt.Fprintf(&buf, ", contents: %s", string(content))

	return buf.String()
}

// notify hands a notification over to the presentation consumer, dropping it
// if no one is draining the channel (eg. in tests). Engine state never
// depends on a notification being delivered.
func (b *Back) notify(notif Notification) {
	select {
	case b.notifications <- notif:
	default:
		log.Printf("warning: dropping notification: %s", notif.String())
	}
}

func (b *Back) sendQueueUpdateNotification(entries []QueueEntry, capacity int) {
	notif := Notification{
		RecipientType: NotificationRecipientTypeQueueChannel,
		Type:          NotificationTypeQueueUpdate,
	}

	notif.Printf("%d/%d players in queue", len(entries), capacity)
	for _, e := range entries {
		notif.Printf("\n- %s (%d MMR)", e.Player.Username, e.Player.MMR)
	}

	b.notify(notif)
}

func (b *Back) sendQueueTimeoutNotification(evicted []QueueEntry) {
	notif := Notification{
		RecipientType: NotificationRecipientTypeQueueChannel,
		Type:          NotificationTypeQueueTimeout,
	}

	notif.Print("The queue has been cleared due to inactivity, feel free to join again.")

	b.notify(notif)

	for _, e := range evicted {
		user := Notification{
			RecipientType: NotificationRecipientTypeUser,
			Recipient:     e.Player.ID,
			Type:          NotificationTypeQueueTimeout,
		}
		user.Printf(
			"Sorry %s, the queue went quiet for too long and was cleared.\n"+
				"You can rejoin at any time.",
			e.Player.Username,
		)
		b.notify(user)
	}
}

func (b *Back) sendTeamSelectionNotification(group *FormationGroup) {
	notif := Notification{
		RecipientType: NotificationRecipientTypeQueueChannel,
		Type:          NotificationTypeTeamSelection,
	}

	notif.Printf("The queue is full! Pick a team distribution (group `%s`):", group.ID)
	for _, p := range group.Players {
		notif.Printf("\n- %s (%d MMR)", p.Username, p.MMR)
	}

	b.notify(notif)
}

func (b *Back) sendDraftTurnNotification(d *DraftSession) {
	notif := Notification{
		RecipientType: NotificationRecipientTypeQueueChannel,
		Type:          NotificationTypeDraftTurn,
	}

	captain := d.CurrentCaptain()
	notif.Printf(
		"Draft `%s`: %s, pick a teammate (%d left):",
		d.ID, captain.Username, len(d.Pool),
	)
	for _, p := range d.Pool {
		notif.Printf("\n- %s (%d MMR)", p.Username, p.MMR)
	}

	b.notify(notif)
}

func (b *Back) sendMatchFormedNotification(m *Match) {
	notif := Notification{
		RecipientType: NotificationRecipientTypeQueueChannel,
		Type:          NotificationTypeMatchFormed,
	}

	notif.Printf("Match #%d is ready (%s).\nTeam 1:", m.ID, m.Formation)
	for _, p := range m.Team1 {
		notif.Printf("\n- %s (%d MMR)", p.Username, p.MMR)
	}
	notif.Print("\nTeam 2:")
	for _, p := range m.Team2 {
		notif.Printf("\n- %s (%d MMR)", p.Username, p.MMR)
	}

	b.notify(notif)
}

// matchRecipient routes match traffic to the channel the presentation layer
// attached to the match, falling back to the queue channel.
func matchRecipient(m *Match) (NotificationRecipientType, string) {
	if m.ChannelID.Valid {
		return NotificationRecipientTypeMatchChannel, m.ChannelID.String
	}

	return NotificationRecipientTypeQueueChannel, ""
}

func (b *Back) sendMatchEndNotifications(m *Match, outcome MatchOutcome, change RatingChange) {
	recipientType, recipient := matchRecipient(m)
	notif := Notification{
		RecipientType: recipientType,
		Recipient:     recipient,
		Type:          NotificationTypeMatchEnd,
	}

	notif.Printf("Match #%d is over: %s (%s).", m.ID, outcome, change.Classification)
	if outcome != MatchOutcomeTie {
		notif.Printf("\nWinners: %+d MMR, losers: %d MMR.", change.Winner, change.Loser)
	}

	b.notify(notif)

	for _, p := range append(append([]MatchParticipant{}, m.Team1...), m.Team2...) {
		user := Notification{
			RecipientType: NotificationRecipientTypeUser,
			Recipient:     p.PlayerID,
			Type:          NotificationTypeMatchEnd,
		}
		user.Printf(
			"Match #%d has been recorded: %s.\nYou are free to queue up again.",
			m.ID, outcome,
		)
		b.notify(user)
	}
}

func (b *Back) sendMatchCancelledNotification(m *Match) {
	recipientType, recipient := matchRecipient(m)
	notif := Notification{
		RecipientType: recipientType,
		Recipient:     recipient,
		Type:          NotificationTypeMatchCancelled,
	}

	notif.Printf("Match #%d has been cancelled, no rating change was applied.", m.ID)

	b.notify(notif)
}
