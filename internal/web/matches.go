package web

import (
	"net/http"
	"time"

	"github.com/l8smu/rankedbot/internal/back"
)

type matchDTO struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Team1 []participantDTO `json:"team1"`
	Team2 []participantDTO `json:"team2"`

	Outcome       string `json:"outcome"`
	Formation     string `json:"formation"`
	AdminModified bool   `json:"admin_modified"`
}

type participantDTO struct {
	Username string `json:"username"`
	MMR      int    `json:"mmr"`
}

func newMatchDTO(m back.Match) matchDTO {
	dto := matchDTO{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt.Time(),
		Formation:     m.Formation,
		AdminModified: m.AdminModified,
		Team1:         make([]participantDTO, 0, len(m.Team1)),
		Team2:         make([]participantDTO, 0, len(m.Team2)),
	}

	if m.EndedAt.Valid {
		t := m.EndedAt.Time.Time()
		dto.EndedAt = &t
	}

	if outcome, ok := m.Outcome(); ok {
		dto.Outcome = outcome.String()
	} else {
		dto.Outcome = "pending"
	}

	for _, p := range m.Team1 {
		dto.Team1 = append(dto.Team1, participantDTO{Username: p.Username, MMR: p.MMR})
	}
	for _, p := range m.Team2 {
		dto.Team2 = append(dto.Team2, participantDTO{Username: p.Username, MMR: p.MMR})
	}

	return dto
}

func (s *Server) getActiveMatches(w http.ResponseWriter, _ *http.Request) {
	matches := s.back.GetActiveMatches()

	ret := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		ret = append(ret, newMatchDTO(m))
	}

	s.response(w, http.StatusOK, ret)
}

func (s *Server) getRecentMatches(w http.ResponseWriter, _ *http.Request) {
	matches, err := s.back.GetRecentMatches(20)
	if err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	ret := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		ret = append(ret, newMatchDTO(m))
	}

	s.cache(w, "public", 1*time.Minute)
	s.response(w, http.StatusOK, ret)
}
