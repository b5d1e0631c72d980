package back

// Error is a sentinel error whose value doubles as the message shown to the
// end user. Callers match specific kinds with errors.Is and decide whether to
// echo the text publicly with errors.As.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrAlreadyQueued     Error = "you are already in the queue"
	ErrNotQueued         Error = "you are not in the queue"
	ErrPlayerNotFound    Error = "this player has never played here"
	ErrAlreadyInMatch    Error = "you are in an active match, report its result before queuing again"
	ErrMatchNotFound     Error = "match not found or already completed"
	ErrMatchStillActive  Error = "this match is still active, report its result instead"
	ErrNotAParticipant   Error = "only match participants can report results"
	ErrNotYourTurn       Error = "it is not your turn to pick"
	ErrPlayerUnavailable Error = "this player is not available to pick"
	ErrGroupNotFound     Error = "this group is no longer waiting for a team selection"
	ErrDraftNotFound     Error = "this draft session no longer exists"
	ErrNotInGroup        Error = "only popped players can select the team distribution"
)
