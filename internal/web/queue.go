package web

import (
	"net/http"
	"time"
)

type queueEntryDTO struct {
	Username string    `json:"username"`
	MMR      int       `json:"mmr"`
	JoinedAt time.Time `json:"joined_at"`
}

func (s *Server) getQueue(w http.ResponseWriter, _ *http.Request) {
	state := s.back.QueueStatus()

	entries := make([]queueEntryDTO, 0, len(state.Entries))
	for _, e := range state.Entries {
		entries = append(entries, queueEntryDTO{
			Username: e.Player.Username,
			MMR:      e.Player.MMR,
			JoinedAt: e.JoinedAt,
		})
	}

	s.response(w, http.StatusOK, map[string]interface{}{
		"entries":         entries,
		"capacity":        state.Capacity,
		"timeout_seconds": int(state.Timeout / time.Second),
	})
}
