package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

type createSaveRequest struct {
	Name        string `json:"name"`
	GameVersion string `json:"game_version"`
}

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.saves.List(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, "Save files retrieved successfully", map[string]any{"saves": summaries})
}

// handleCreateSave snapshots the current player store.
func (s *Server) handleCreateSave(w http.ResponseWriter, r *http.Request) {
	var req createSaveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeAppError(w, err)
		return
	}
	if req.GameVersion == "" {
		req.GameVersion = s.gameVersion
	}
	f, err := s.saves.Create(r.Context(), req.Name, req.GameVersion, s.players.All())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.publish("save_created", f.ID, f.Name)
	writeOK(w, fmt.Sprintf("Save file '%s' created successfully", f.Name), f)
}

func (s *Server) handleGetSave(w http.ResponseWriter, r *http.Request) {
	f, err := s.saves.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeOK(w, "Save file retrieved successfully", f)
}

// handleUpdateSave overwrites a save with the current player store.
func (s *Server) handleUpdateSave(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f, err := s.saves.Update(r.Context(), id, s.players.All())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.publish("save_updated", f.ID, f.Name)
	writeOK(w, fmt.Sprintf("Save file with ID %s updated successfully", id), f)
}

func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.saves.Delete(r.Context(), id); err != nil {
		s.writeAppError(w, err)
		return
	}
	s.publish("save_deleted", id, "")
	writeOK(w, fmt.Sprintf("Save file with ID %s deleted successfully", id), nil)
}

// handleLoadSave replaces the whole player store with the save's players.
func (s *Server) handleLoadSave(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	players, err := s.saves.Load(r.Context(), id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.players.Replace(players)
	s.publish("save_loaded", id, fmt.Sprintf("%d players", len(players)))
	writeOK(w, fmt.Sprintf("Save file with ID %s loaded successfully", id), map[string]int{"player_count": len(players)})
}

func (s *Server) handleBackupSave(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	backupID, err := s.saves.Backup(r.Context(), id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.publish("save_backed_up", id, backupID)
	writeOK(w, fmt.Sprintf("Backup of save file with ID %s created successfully", id), map[string]string{"backup_id": backupID})
}
