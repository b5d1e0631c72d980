package back

import (
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
)

// A FormationGroup is a full pop of the queue waiting for one of its members
// to choose a team distribution. It is destroyed the instant a Match or a
// DraftSession is created from it.
type FormationGroup struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Players   []Player
}

func newFormationGroup(players []Player) *FormationGroup {
	return &FormationGroup{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Players:   players,
	}
}

func (g *FormationGroup) HasPlayer(playerID string) bool {
	for _, p := range g.Players {
		if p.ID == playerID {
			return true
		}
	}

	return false
}

// balancedSplit exhaustively enumerates every way to pick teamSize players
// for team 1 and returns the split with the smallest rating-sum difference,
// first found wins ties.
// C(popSize, teamSize) stays tiny for the 2-8 player pops this is used with,
// anything much larger needs a heuristic instead.
func balancedSplit(players []Player, teamSize int) (team1, team2 []Player, diff int) {
	best := -1

	forEachCombination(len(players), teamSize, func(picked []int) {
		sum1, sum2 := 0, 0
		inTeam1 := make(map[int]bool, teamSize)
		for _, i := range picked {
			inTeam1[i] = true
			sum1 += players[i].MMR
		}
		for i := range players {
			if !inTeam1[i] {
				sum2 += players[i].MMR
			}
		}

		d := sum1 - sum2
		if d < 0 {
			d = -d
		}

		if best >= 0 && d >= best {
			return
		}

		best = d
		team1 = team1[:0]
		team2 = team2[:0]
		for i := range players {
			if inTeam1[i] {
				team1 = append(team1, players[i])
			} else {
				team2 = append(team2, players[i])
			}
		}
	})

	return team1, team2, best
}

// forEachCombination calls fn with every k-sized combination of [0, n)
// indices, in lexicographic order.
func forEachCombination(n, k int, fn func(picked []int)) {
	if k <= 0 || k > n {
		return
	}

	picked := make([]int, k)
	for i := range picked {
		picked[i] = i
	}

	for {
		fn(picked)

		// advance the rightmost index that can still move
		i := k - 1
		for i >= 0 && picked[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}

		picked[i]++
		for j := i + 1; j < k; j++ {
			picked[j] = picked[j-1] + 1
		}
	}
}

// ChooseRandomTeams resolves a FormationGroup into a Match using the
// exhaustive balanced split. The actor must be one of the popped players.
func (b *Back) ChooseRandomTeams(groupID uuid.UUID, actorID string) (*Match, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group, ok := b.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}

	if !group.HasPlayer(actorID) {
		return nil, ErrNotInGroup
	}

	team1, team2, diff := balancedSplit(group.Players, b.config.TeamSize())
	log.Printf("info: balanced split for group %s, MMR difference %d", group.ID, diff)

	match, err := b.createMatchLocked(team1, team2, FormationRandom)
	if err != nil {
		// keep the group so the choice can be retried
		return nil, err
	}

	delete(b.groups, groupID)
	b.sendMatchFormedNotification(match)

	return match, nil
}

// ChooseCaptainDraft resolves a FormationGroup into a DraftSession: the two
// highest-rated players captain one team each and alternate picks over the
// rest. A 1v1 pop has nothing to pick and converts into a Match immediately,
// in which case the returned session is nil.
func (b *Back) ChooseCaptainDraft(groupID uuid.UUID, actorID string) (*DraftSession, *Match, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group, ok := b.groups[groupID]
	if !ok {
		return nil, nil, ErrGroupNotFound
	}

	if !group.HasPlayer(actorID) {
		return nil, nil, ErrNotInGroup
	}

	draft := newDraftSession(group.Players)
	if draft.Complete() {
		match, err := b.createMatchLocked(draft.Teams[0], draft.Teams[1], FormationDraft)
		if err != nil {
			return nil, nil, err
		}

		delete(b.groups, groupID)
		b.sendMatchFormedNotification(match)

		return nil, match, nil
	}

	b.drafts[draft.ID] = draft
	delete(b.groups, groupID)
	log.Printf("info: draft %s started, captains %s and %s",
		draft.ID, draft.Captains[0].Username, draft.Captains[1].Username)

	b.sendDraftTurnNotification(draft)

	return draft, nil, nil
}

// GroupForPlayer returns a snapshot of the FormationGroup the player was
// popped into, if any.
func (b *Back) GroupForPlayer(playerID string) (FormationGroup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, g := range b.groups {
		if g.HasPlayer(playerID) {
			return *g, nil
		}
	}

	return FormationGroup{}, ErrGroupNotFound
}

// sortedByMMR returns a copy sorted by rating, highest first.
func sortedByMMR(players []Player) []Player {
	ret := make([]Player, len(players))
	copy(ret, players)
	sort.Sort(byMMRDesc(ret))

	return ret
}
