package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/l8smu/rankedbot/internal/back"
)

type playerDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`

	MMR                       int  `json:"mmr"`
	Wins                      int  `json:"wins"`
	Losses                    int  `json:"losses"`
	IsPlaced                  bool `json:"is_placed"`
	PlacementMatchesRemaining int  `json:"placement_matches_remaining"`
}

func newPlayerDTO(p back.Player) playerDTO {
	return playerDTO{
		ID:                        p.ID,
		Username:                  p.Username,
		CreatedAt:                 p.CreatedAt.Time(),
		MMR:                       p.MMR,
		Wins:                      p.Wins,
		Losses:                    p.Losses,
		IsPlaced:                  p.IsPlaced,
		PlacementMatchesRemaining: p.PlacementMatchesRemaining,
	}
}

func (s *Server) getLeaderboard(w http.ResponseWriter, _ *http.Request) {
	players, err := s.back.GetLeaderboard(100)
	if err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	ret := make([]playerDTO, 0, len(players))
	for _, p := range players {
		ret = append(ret, newPlayerDTO(p))
	}

	s.cache(w, "public", 1*time.Minute)
	s.response(w, http.StatusOK, ret)
}

func (s *Server) getOnePlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.back.GetPlayerStats(chi.URLParam(r, "id"))
	if errors.Is(err, back.ErrPlayerNotFound) {
		s.error(w, err, http.StatusNotFound)
		return
	}
	if err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	s.cache(w, "public", 1*time.Minute)
	s.response(w, http.StatusOK, newPlayerDTO(player))
}
