package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"pokestate/internal/page"
	"pokestate/internal/player"
)

type startBattleRequest struct {
	OpponentID   string `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
}

type concludeBattleRequest struct {
	Result string `json:"result"`
}

func (s *Server) handleStartBattle(w http.ResponseWriter, r *http.Request) {
	var req startBattleRequest
	if err := decode(w, r, &req); err != nil {
		s.writeAppError(w, err)
		return
	}
	b, err := s.players.StartBattle(mux.Vars(r)["id"], req.OpponentID, req.OpponentName)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Started battle against %s", b.OpponentName), map[string]string{"battle_id": b.ID})
}

func (s *Server) handleListBattles(w http.ResponseWriter, r *http.Request) {
	filter := player.BattleFilter{OpponentID: r.URL.Query().Get("opponent_id")}
	res, err := s.players.Battles(mux.Vars(r)["id"], filter, queryInt(r, "page", 1), queryInt(r, "per_page", page.Unset))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Retrieved %d battles", len(res.Items)), map[string]any{
		"battles":    res.Items,
		"pagination": paginationOf(res),
	})
}

func (s *Server) handleGetBattle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	b, err := s.players.Battle(vars["id"], vars["battleId"])
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, "Retrieved battle details", b)
}

// handleConcludeBattle takes the result from ?result= or from a JSON body.
func (s *Server) handleConcludeBattle(w http.ResponseWriter, r *http.Request) {
	result := r.URL.Query().Get("result")
	if result == "" {
		var req concludeBattleRequest
		if err := decode(w, r, &req); err != nil {
			s.writeAppError(w, err)
			return
		}
		result = req.Result
	}
	vars := mux.Vars(r)
	b, err := s.players.ConcludeBattle(vars["id"], vars["battleId"], result)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Battle ended with result: %s", *b.Result), b)
}

func (s *Server) handleListMatchups(w http.ResponseWriter, r *http.Request) {
	records, err := s.players.Matchups(mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, "Retrieved matchup records", map[string]any{"matchups": records})
}

func (s *Server) handleGetMatchup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	record, err := s.players.Matchup(vars["id"], vars["opponentId"])
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, "Retrieved matchup record", record)
}
