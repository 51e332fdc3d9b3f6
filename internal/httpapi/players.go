package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"pokestate/internal/page"
	"pokestate/internal/player"
	"pokestate/internal/pokemon"
)

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var spec player.Spec
	if err := decode(w, r, &spec); err != nil {
		s.writeAppError(w, err)
		return
	}
	p, err := s.players.Create(spec)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Player %s created successfully", p.Name), map[string]string{"player_id": p.ID})
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	res := s.players.List(queryInt(r, "page", 1), queryInt(r, "per_page", page.Unset))
	writeJSON(w, http.StatusOK, pagedEnvelope{
		Success:    true,
		Message:    fmt.Sprintf("Retrieved %d players", len(res.Items)),
		Data:       res.Items,
		Total:      res.Total,
		Page:       res.Page,
		PerPage:    res.PerPage,
		TotalPages: res.TotalPages,
	})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.players.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Retrieved player %s", p.Name), p)
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var spec player.UpdateSpec
	if err := decode(w, r, &spec); err != nil {
		s.writeAppError(w, err)
		return
	}
	p, err := s.players.Update(mux.Vars(r)["id"], spec)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Player %s updated successfully", p.Name), p)
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.players.Delete(mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Player %s deleted successfully", p.Name), nil)
}

func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	team, err := s.players.Team(id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Retrieved team for player %s", id), map[string]any{"team": team})
}

func (s *Server) handleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	var spec pokemon.Spec
	if err := decode(w, r, &spec); err != nil {
		s.writeAppError(w, err)
		return
	}
	member, err := s.players.AddTeamMember(mux.Vars(r)["id"], spec)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Added %s to team", member.Name), member)
}

func (s *Server) handleUpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	var spec pokemon.Spec
	if err := decode(w, r, &spec); err != nil {
		s.writeAppError(w, err)
		return
	}
	member, err := s.players.UpdateTeamMember(mux.Vars(r)["id"], index, spec)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Updated %s at index %d", member.Name, index), member)
}

func (s *Server) handleRemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	removed, err := s.players.RemoveTeamMember(mux.Vars(r)["id"], index)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Removed %s from team", removed.Name), nil)
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := s.players.Location(mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, "Retrieved location", loc)
}

func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	var loc player.Location
	if err := decode(w, r, &loc); err != nil {
		s.writeAppError(w, err)
		return
	}
	updated, err := s.players.SetLocation(mux.Vars(r)["id"], loc)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, "Location updated successfully", updated)
}

type thoughtRequest struct {
	Content  string         `json:"content"`
	Category string         `json:"category"`
	Context  map[string]any `json:"context"`
}

func (s *Server) handleAddThought(w http.ResponseWriter, r *http.Request) {
	var req thoughtRequest
	if err := decode(w, r, &req); err != nil {
		s.writeAppError(w, err)
		return
	}
	thought, err := s.players.AppendThought(mux.Vars(r)["id"], req.Content, req.Category, req.Context)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, "Added thought", thought)
}

func (s *Server) handleListThoughts(w http.ResponseWriter, r *http.Request) {
	filter := player.ThoughtFilter{Category: r.URL.Query().Get("category")}
	res, err := s.players.Thoughts(mux.Vars(r)["id"], filter, queryInt(r, "page", 1), queryInt(r, "per_page", page.Unset))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, fmt.Sprintf("Retrieved %d thoughts", len(res.Items)), map[string]any{
		"thoughts":   res.Items,
		"pagination": paginationOf(res),
	})
}
