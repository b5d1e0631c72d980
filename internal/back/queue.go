package back

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
)

// A QueueEntry is a waiting player and the moment it joined.
type QueueEntry struct {
	Player   Player
	JoinedAt time.Time
}

// QueueState is a read-only snapshot of the queue.
type QueueState struct {
	Entries  []QueueEntry
	Capacity int
	// IdleSince is the last join/leave, the queue clears itself once it has
	// been idle for Timeout.
	IdleSince time.Time
	Timeout   time.Duration
}

// JoinQueue adds a player to the queue, registering it on first contact.
// When the queue reaches the configured size the oldest entries are popped
// into a FormationGroup awaiting a team distribution choice.
func (b *Back) JoinQueue(playerID, username string) (QueueState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range b.queue {
		if e.Player.ID == playerID {
			return QueueState{}, ErrAlreadyQueued
		}
	}

	if b.isPlayerBusyLocked(playerID) {
		return QueueState{}, ErrAlreadyInMatch
	}

	var player Player
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		player, err = getOrCreatePlayer(tx, playerID, username)
		return err
	}); err != nil {
		return QueueState{}, err
	}

	b.queue = append(b.queue, QueueEntry{Player: player, JoinedAt: time.Now()})
	b.queueActivityAt = time.Now()
	log.Printf("info: %s joined the queue (%d/%d)", player.Username, len(b.queue), b.config.QueueSize)

	if len(b.queue) >= b.config.QueueSize {
		// the pop announces the team selection, an extra "0/N players in
		// queue" update right after it would be noise
		b.popQueueLocked()
	} else {
		b.sendQueueUpdateNotification(b.queue, b.config.QueueSize)
	}

	return b.queueStateLocked(), nil
}

// isPlayerBusyLocked reports whether the player belongs to an active match or
// to a popped group still forming its teams. Callers must hold b.mu.
func (b *Back) isPlayerBusyLocked(playerID string) bool {
	for _, m := range b.matches {
		if m.HasParticipant(playerID) {
			return true
		}
	}

	for _, g := range b.groups {
		if g.HasPlayer(playerID) {
			return true
		}
	}

	for _, d := range b.drafts {
		if d.HasPlayer(playerID) {
			return true
		}
	}

	return false
}

// popQueueLocked moves the oldest QueueSize entries into a new
// FormationGroup. Callers must hold b.mu.
func (b *Back) popQueueLocked() {
	popped := b.queue[:b.config.QueueSize]
	b.queue = b.queue[b.config.QueueSize:]

	players := make([]Player, 0, len(popped))
	for _, e := range popped {
		players = append(players, e.Player)
	}

	group := newFormationGroup(players)
	b.groups[group.ID] = group
	log.Printf("info: popped %d players into group %s", len(players), group.ID)

	b.sendTeamSelectionNotification(group)
}

func (b *Back) LeaveQueue(playerID string) (QueueState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for k := range b.queue {
		if b.queue[k].Player.ID != playerID {
			continue
		}

		log.Printf("info: %s left the queue", b.queue[k].Player.Username)
		b.queue = append(b.queue[:k], b.queue[k+1:]...)
		b.queueActivityAt = time.Now()
		b.sendQueueUpdateNotification(b.queue, b.config.QueueSize)

		return b.queueStateLocked(), nil
	}

	return QueueState{}, ErrNotQueued
}

func (b *Back) QueueStatus() QueueState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.queueStateLocked()
}

func (b *Back) queueStateLocked() QueueState {
	entries := make([]QueueEntry, len(b.queue))
	copy(entries, b.queue)

	return QueueState{
		Entries:   entries,
		Capacity:  b.config.QueueSize,
		IdleSince: b.queueActivityAt,
		Timeout:   b.config.QueueTimeout(),
	}
}

// SetQueueSize reconfigures the pop size. The pending queue is cleared
// wholesale, there is no partial re-grouping.
func (b *Back) SetQueueSize(size int) error {
	if size < 2 || size%2 != 0 {
		return Error("queue size must be an even number >= 2")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := b.queue
	b.queue = nil
	b.config.QueueSize = size
	log.Printf("info: queue size set to %d, %d entries evicted", size, len(evicted))

	if len(evicted) > 0 {
		b.sendQueueTimeoutNotification(evicted)
	}

	return nil
}

// tickQueueTimeout clears the whole queue once it has been idle for the
// configured duration. It runs on the periodic tick and is a no-op on an
// empty or recently active queue.
func (b *Back) tickQueueTimeout(now time.Time) []QueueEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return nil
	}

	if now.Sub(b.queueActivityAt) < b.config.QueueTimeout() {
		return nil
	}

	evicted := b.queue
	b.queue = nil
	b.queueActivityAt = now
	log.Printf("info: cleared %d queue entries after %s of inactivity", len(evicted), b.config.QueueTimeout())

	b.sendQueueTimeoutNotification(evicted)

	return evicted
}
