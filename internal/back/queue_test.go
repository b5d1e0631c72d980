package back // nolint:testpackage

import (
	"errors"
	"testing"
	"time"
)

func TestJoinQueueRejectsDuplicates(t *testing.T) {
	back := createTestBack(t, 4)

	if _, err := back.JoinQueue("1", "Darunia"); err != nil {
		t.Fatal(err)
	}

	if _, err := back.JoinQueue("1", "Darunia"); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("expected ErrAlreadyQueued, got %v", err)
	}
}

func TestJoinQueueCreatesPlayerOnFirstContact(t *testing.T) {
	back := createTestBack(t, 4)

	if _, err := back.JoinQueue("1", "Darunia"); err != nil {
		t.Fatal(err)
	}

	player, err := back.GetPlayerStats("1")
	if err != nil {
		t.Fatal(err)
	}

	if player.MMR != DefaultMMR {
		t.Errorf("new player MMR = %d, want %d", player.MMR, DefaultMMR)
	}
	if player.PlacementMatchesRemaining != PlacementMatchesCount {
		t.Errorf("new player has %d placement matches, want %d",
			player.PlacementMatchesRemaining, PlacementMatchesCount)
	}
	if player.IsPlaced {
		t.Error("new player must not be placed")
	}
}

func TestLeaveQueue(t *testing.T) {
	back := createTestBack(t, 4)

	if _, err := back.LeaveQueue("1"); !errors.Is(err, ErrNotQueued) {
		t.Errorf("expected ErrNotQueued, got %v", err)
	}

	if _, err := back.JoinQueue("1", "Darunia"); err != nil {
		t.Fatal(err)
	}
	state, err := back.LeaveQueue("1")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Entries) != 0 {
		t.Errorf("expected an empty queue, got %d entries", len(state.Entries))
	}

	// leaving resets membership, rejoining works
	if _, err := back.JoinQueue("1", "Darunia"); err != nil {
		t.Fatal(err)
	}
}

func TestQueuePopsAtThreshold(t *testing.T) {
	back := createTestBack(t, 4)
	insertTestPlayers(t, back,
		testPlayer("1", "Darunia", 1500),
		testPlayer("2", "Nabooru", 1300),
		testPlayer("3", "Rauru", 1100),
		testPlayer("4", "Ruto", 900),
	)

	for k, id := range []string{"1", "2", "3"} {
		state, err := back.JoinQueue(id, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(state.Entries) != k+1 {
			t.Errorf("unexpected queue length %d after %s joined", len(state.Entries), id)
		}
	}

	state, err := back.JoinQueue("4", "")
	if err != nil {
		t.Fatal(err)
	}

	if len(state.Entries) != 0 {
		t.Errorf("queue should be empty after the pop, got %d entries", len(state.Entries))
	}

	group := onlyGroup(t, back)
	if len(group.Players) != 4 {
		t.Errorf("expected 4 popped players, got %d", len(group.Players))
	}
}

// drainNotifications empties the notification channel without blocking.
func drainNotifications(back *Back) []Notification {
	var out []Notification
	for {
		select {
		case n := <-back.notifications:
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestPoppingJoinAnnouncesTeamSelectionOnly(t *testing.T) {
	back := createTestBack(t, 2)
	insertTestPlayers(t, back,
		testPlayer("1", "Darunia", 1500),
		testPlayer("2", "Nabooru", 1300),
	)

	if _, err := back.JoinQueue("1", ""); err != nil {
		t.Fatal(err)
	}
	drainNotifications(back)

	if _, err := back.JoinQueue("2", ""); err != nil {
		t.Fatal(err)
	}

	notifs := drainNotifications(back)
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification for the popping join, got %d", len(notifs))
	}
	if notifs[0].Type != NotificationTypeTeamSelection {
		t.Errorf("expected a %s notification, got %s",
			NotificationTypeName(NotificationTypeTeamSelection),
			NotificationTypeName(notifs[0].Type))
	}
}

func TestJoinQueueWhileInActiveMatch(t *testing.T) {
	back := createTestBack(t, 2)
	insertTestPlayers(t, back,
		testPlayer("1", "Darunia", 1500),
		testPlayer("2", "Nabooru", 1300),
	)

	if _, err := back.JoinQueue("1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := back.JoinQueue("2", ""); err != nil {
		t.Fatal(err)
	}

	group := onlyGroup(t, back)
	if _, err := back.ChooseRandomTeams(group.ID, "1"); err != nil {
		t.Fatal(err)
	}

	if _, err := back.JoinQueue("1", ""); !errors.Is(err, ErrAlreadyInMatch) {
		t.Errorf("expected ErrAlreadyInMatch, got %v", err)
	}
}

func TestJoinQueueWhileGroupPending(t *testing.T) {
	back := createTestBack(t, 2)
	insertTestPlayers(t, back,
		testPlayer("1", "Darunia", 1500),
		testPlayer("2", "Nabooru", 1300),
	)

	if _, err := back.JoinQueue("1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := back.JoinQueue("2", ""); err != nil {
		t.Fatal(err)
	}

	// popped but no distribution chosen yet
	if _, err := back.JoinQueue("1", ""); !errors.Is(err, ErrAlreadyInMatch) {
		t.Errorf("expected ErrAlreadyInMatch for a popped player, got %v", err)
	}
}

func TestQueueTimeout(t *testing.T) {
	back := createTestBack(t, 4)

	if _, err := back.JoinQueue("1", "Darunia"); err != nil {
		t.Fatal(err)
	}

	now := time.Now()

	// not idle for long enough yet
	if evicted := back.tickQueueTimeout(now.Add(1 * time.Minute)); evicted != nil {
		t.Errorf("queue cleared too early, evicted %d", len(evicted))
	}

	evicted := back.tickQueueTimeout(now.Add(6 * time.Minute))
	if len(evicted) != 1 {
		t.Fatalf("expected 1 evicted entry, got %d", len(evicted))
	}

	// a second tick on the now-empty queue is a no-op
	if evicted := back.tickQueueTimeout(now.Add(12 * time.Minute)); evicted != nil {
		t.Error("tick on an empty queue must be a no-op")
	}

	// the evicted player can rejoin without leaving first
	if _, err := back.JoinQueue("1", "Darunia"); err != nil {
		t.Errorf("rejoin after timeout failed: %v", err)
	}
}

func TestSetQueueSizeClearsQueue(t *testing.T) {
	back := createTestBack(t, 4)

	if _, err := back.JoinQueue("1", "Darunia"); err != nil {
		t.Fatal(err)
	}

	if err := back.SetQueueSize(5); err == nil {
		t.Error("odd queue size must be rejected")
	}

	if err := back.SetQueueSize(6); err != nil {
		t.Fatal(err)
	}

	if state := back.QueueStatus(); len(state.Entries) != 0 {
		t.Errorf("queue should be cleared on resize, got %d entries", len(state.Entries))
	}
	if back.config.QueueSize != 6 {
		t.Errorf("queue size = %d, want 6", back.config.QueueSize)
	}
}
