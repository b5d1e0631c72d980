package back

import (
	"log"
	"time"

	"github.com/google/uuid"
)

// A DraftSession is an in-progress captain draft. The pick order always has
// exactly one entry per pickable player, so the session terminates after
// len(PickOrder) picks, when it is converted into a Match and destroyed.
// Drafts carry no timeout: a stalled draft stays around until resolved.
type DraftSession struct {
	ID        uuid.UUID
	CreatedAt time.Time

	Captains [2]Player
	Teams    [2][]Player
	Pool     []Player

	// PickOrder is a fixed sequence of team indices, Cursor points at the
	// team whose captain picks next.
	PickOrder []int
	Cursor    int
}

// newDraftSession seeds the two highest-rated players as captains and builds
// an alternating pick order covering the whole remaining pool.
func newDraftSession(players []Player) *DraftSession {
	sorted := sortedByMMR(players)

	d := &DraftSession{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Captains:  [2]Player{sorted[0], sorted[1]},
		Pool:      sorted[2:],
	}

	d.Teams[0] = []Player{d.Captains[0]}
	d.Teams[1] = []Player{d.Captains[1]}

	d.PickOrder = make([]int, len(d.Pool))
	for i := range d.PickOrder {
		d.PickOrder[i] = i % 2
	}

	return d
}

func (d *DraftSession) Complete() bool {
	return d.Cursor >= len(d.PickOrder)
}

// CurrentCaptain returns the captain whose turn it is to pick. Only valid on
// an incomplete session.
func (d *DraftSession) CurrentCaptain() Player {
	return d.Captains[d.PickOrder[d.Cursor]]
}

func (d *DraftSession) HasPlayer(playerID string) bool {
	for _, team := range d.Teams {
		for _, p := range team {
			if p.ID == playerID {
				return true
			}
		}
	}

	for _, p := range d.Pool {
		if p.ID == playerID {
			return true
		}
	}

	return false
}

// pick moves pickedID from the pool onto the acting captain's team and
// advances the cursor.
func (d *DraftSession) pick(actorID, pickedID string) error {
	if d.Complete() {
		return ErrDraftNotFound
	}

	turn := d.PickOrder[d.Cursor]
	if d.Captains[turn].ID != actorID {
		return ErrNotYourTurn
	}

	for k := range d.Pool {
		if d.Pool[k].ID != pickedID {
			continue
		}

		d.Teams[turn] = append(d.Teams[turn], d.Pool[k])
		d.Pool = append(d.Pool[:k], d.Pool[k+1:]...)
		d.Cursor++

		return nil
	}

	return ErrPlayerUnavailable
}

// PickDraftPlayer handles one (draftID, actorID, pickedID) command from the
// presentation layer. When the pick exhausts the order the session converts
// into a Match and the returned session is nil.
func (b *Back) PickDraftPlayer(draftID uuid.UUID, actorID, pickedID string) (*DraftSession, *Match, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	draft, ok := b.drafts[draftID]
	if !ok {
		return nil, nil, ErrDraftNotFound
	}

	// A complete draft still in the map means a previous conversion failed
	// to persist, any pick command retries the conversion instead.
	if !draft.Complete() {
		if err := draft.pick(actorID, pickedID); err != nil {
			return nil, nil, err
		}

		log.Printf("info: draft %s: %s picked %s", draft.ID, actorID, pickedID)

		if !draft.Complete() {
			b.sendDraftTurnNotification(draft)
			return draft, nil, nil
		}
	}

	match, err := b.createMatchLocked(draft.Teams[0], draft.Teams[1], FormationDraft)
	if err != nil {
		return nil, nil, err
	}

	delete(b.drafts, draftID)
	b.sendMatchFormedNotification(match)

	return nil, match, nil
}

// DraftForPlayer returns a snapshot of the draft the player is part of, be it
// as captain or as a pickable pool member.
func (b *Back) DraftForPlayer(playerID string) (DraftSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, d := range b.drafts {
		if d.HasPlayer(playerID) {
			return *d, nil
		}
	}

	return DraftSession{}, ErrDraftNotFound
}

// GetDraftSession returns a snapshot of an in-progress draft.
func (b *Back) GetDraftSession(draftID uuid.UUID) (DraftSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	draft, ok := b.drafts[draftID]
	if !ok {
		return DraftSession{}, ErrDraftNotFound
	}

	return *draft, nil
}
