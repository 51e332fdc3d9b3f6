package mcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pokestate/internal/page"
	"pokestate/internal/player"
	"pokestate/internal/pokemon"
	"pokestate/internal/save"
)

type ListPlayersInput struct {
	Page    int  `json:"page,omitempty" jsonschema:"1-based page number"`
	PerPage *int `json:"per_page,omitempty" jsonschema:"page size, at most 100"`
}

type PlayerInput struct {
	PlayerID string `json:"player_id" jsonschema:"player id such as player_1"`
}

type AddThoughtInput struct {
	PlayerID string `json:"player_id" jsonschema:"player id"`
	Content  string `json:"content" jsonschema:"the thought text"`
	Category string `json:"category,omitempty" jsonschema:"category, defaults to general"`
}

type StartBattleInput struct {
	PlayerID     string `json:"player_id" jsonschema:"player id"`
	OpponentID   string `json:"opponent_id" jsonschema:"opponent id such as npc_1"`
	OpponentName string `json:"opponent_name,omitempty" jsonschema:"opponent display name"`
}

type ConcludeBattleInput struct {
	PlayerID string `json:"player_id" jsonschema:"player id"`
	BattleID string `json:"battle_id" jsonschema:"battle id such as battle_1"`
	Result   string `json:"result" jsonschema:"win, loss or draw"`
}

type ListSavesInput struct{}

type CreateSaveInput struct {
	Name        string `json:"name" jsonschema:"save name"`
	GameVersion string `json:"game_version,omitempty" jsonschema:"game version label"`
}

type LoadSaveInput struct {
	SaveID string `json:"save_id" jsonschema:"save id to restore; replaces all current players"`
}

type PokemonOutput struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Level     int      `json:"level"`
	Types     []string `json:"types"`
	Nature    string   `json:"nature"`
	HeldItem  string   `json:"held_item,omitempty"`
	CurrentHP int      `json:"current_hp"`
	MaxHP     int      `json:"max_hp"`
}

type PlayerSummaryOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TeamSize    int      `json:"team_size"`
	Location    []string `json:"location"`
	LastUpdated string   `json:"last_updated"`
}

type ListPlayersOutput struct {
	Players    []PlayerSummaryOutput `json:"players"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"per_page"`
	TotalPages int                   `json:"total_pages"`
}

type PlayerOutput struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Team         []PokemonOutput `json:"team"`
	Location     []string        `json:"location"`
	Description  string          `json:"location_description,omitempty"`
	Accessible   [][]string      `json:"accessible_locations"`
	Items        []string        `json:"items"`
	Badges       []string        `json:"badges"`
	ThoughtCount int             `json:"thought_count"`
	BattleCount  int             `json:"battle_count"`
	CreatedAt    string          `json:"created_at"`
	LastUpdated  string          `json:"last_updated"`
}

type ThoughtOutput struct {
	Content   string `json:"content"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
}

type BattleOutput struct {
	ID           string `json:"id"`
	OpponentID   string `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
	Result       string `json:"result,omitempty"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time,omitempty"`
	TeamSize     int    `json:"team_size"`
}

type MatchupOutput struct {
	OpponentID   string `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Draws        int    `json:"draws"`
	LastBattle   string `json:"last_battle,omitempty"`
}

type GetMatchupsOutput struct {
	Matchups []MatchupOutput `json:"matchups"`
}

type SaveSummaryOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	GameVersion string `json:"game_version"`
	PlayerCount int    `json:"player_count"`
	LastUpdated string `json:"last_updated"`
}

type ListSavesOutput struct {
	Saves []SaveSummaryOutput `json:"saves"`
}

type LoadSaveOutput struct {
	SaveID      string `json:"save_id"`
	PlayerCount int    `json:"player_count"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_players",
		Description: "List players in creation order",
	}, s.handleListPlayers)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_player",
		Description: "Retrieve a player with team, location and inventory",
	}, s.handleGetPlayer)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "add_thought",
		Description: "Append an entry to a player's thought log",
	}, s.handleAddThought)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "start_battle",
		Description: "Start a battle against an opponent using the current team",
	}, s.handleStartBattle)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "conclude_battle",
		Description: "Record the result of an in-progress battle",
	}, s.handleConcludeBattle)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_matchups",
		Description: "Return win/loss/draw records per opponent",
	}, s.handleGetMatchups)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_saves",
		Description: "List save files, most recently updated first",
	}, s.handleListSaves)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "create_save",
		Description: "Snapshot all current players into a new save file",
	}, s.handleCreateSave)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "load_save",
		Description: "Replace all current players with the contents of a save file",
	}, s.handleLoadSave)
}

func (s *Server) handleListPlayers(ctx context.Context, req *sdk.CallToolRequest, input ListPlayersInput) (*sdk.CallToolResult, ListPlayersOutput, error) {
	perPage := page.Unset
	if input.PerPage != nil {
		perPage = *input.PerPage
	}
	res := s.players.List(input.Page, perPage)
	out := ListPlayersOutput{
		Players:    make([]PlayerSummaryOutput, 0, len(res.Items)),
		Total:      res.Total,
		Page:       res.Page,
		PerPage:    res.PerPage,
		TotalPages: res.TotalPages,
	}
	for _, p := range res.Items {
		out.Players = append(out.Players, PlayerSummaryOutput{
			ID:          p.ID,
			Name:        p.Name,
			TeamSize:    len(p.Team),
			Location:    append([]string{}, p.Location.Path...),
			LastUpdated: formatTime(p.LastUpdated),
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetPlayer(ctx context.Context, req *sdk.CallToolRequest, input PlayerInput) (*sdk.CallToolResult, PlayerOutput, error) {
	if input.PlayerID == "" {
		return nil, PlayerOutput{}, fmt.Errorf("player_id is required")
	}
	p, err := s.players.Get(input.PlayerID)
	if err != nil {
		return nil, PlayerOutput{}, err
	}
	return nil, playerOutput(p), nil
}

func (s *Server) handleAddThought(ctx context.Context, req *sdk.CallToolRequest, input AddThoughtInput) (*sdk.CallToolResult, ThoughtOutput, error) {
	if input.PlayerID == "" {
		return nil, ThoughtOutput{}, fmt.Errorf("player_id is required")
	}
	t, err := s.players.AppendThought(input.PlayerID, input.Content, input.Category, nil)
	if err != nil {
		return nil, ThoughtOutput{}, err
	}
	return nil, ThoughtOutput{Content: t.Content, Category: t.Category, Timestamp: formatTime(t.Timestamp)}, nil
}

func (s *Server) handleStartBattle(ctx context.Context, req *sdk.CallToolRequest, input StartBattleInput) (*sdk.CallToolResult, BattleOutput, error) {
	if input.PlayerID == "" {
		return nil, BattleOutput{}, fmt.Errorf("player_id is required")
	}
	b, err := s.players.StartBattle(input.PlayerID, input.OpponentID, input.OpponentName)
	if err != nil {
		return nil, BattleOutput{}, err
	}
	return nil, battleOutput(b), nil
}

func (s *Server) handleConcludeBattle(ctx context.Context, req *sdk.CallToolRequest, input ConcludeBattleInput) (*sdk.CallToolResult, BattleOutput, error) {
	if input.PlayerID == "" || input.BattleID == "" {
		return nil, BattleOutput{}, fmt.Errorf("player_id and battle_id are required")
	}
	b, err := s.players.ConcludeBattle(input.PlayerID, input.BattleID, input.Result)
	if err != nil {
		return nil, BattleOutput{}, err
	}
	return nil, battleOutput(b), nil
}

func (s *Server) handleGetMatchups(ctx context.Context, req *sdk.CallToolRequest, input PlayerInput) (*sdk.CallToolResult, GetMatchupsOutput, error) {
	if input.PlayerID == "" {
		return nil, GetMatchupsOutput{}, fmt.Errorf("player_id is required")
	}
	records, err := s.players.Matchups(input.PlayerID)
	if err != nil {
		return nil, GetMatchupsOutput{}, err
	}
	out := GetMatchupsOutput{Matchups: make([]MatchupOutput, 0, len(records))}
	for _, r := range records {
		m := MatchupOutput{
			OpponentID:   r.OpponentID,
			OpponentName: r.OpponentName,
			Wins:         r.Wins,
			Losses:       r.Losses,
			Draws:        r.Draws,
		}
		if r.LastBattle != nil {
			m.LastBattle = formatTime(*r.LastBattle)
		}
		out.Matchups = append(out.Matchups, m)
	}
	sort.Slice(out.Matchups, func(i, j int) bool {
		return out.Matchups[i].OpponentID < out.Matchups[j].OpponentID
	})
	return nil, out, nil
}

func (s *Server) handleListSaves(ctx context.Context, req *sdk.CallToolRequest, input ListSavesInput) (*sdk.CallToolResult, ListSavesOutput, error) {
	summaries, err := s.saves.List(ctx)
	if err != nil {
		return nil, ListSavesOutput{}, err
	}
	out := ListSavesOutput{Saves: make([]SaveSummaryOutput, 0, len(summaries))}
	for _, sum := range summaries {
		out.Saves = append(out.Saves, saveSummaryOutput(sum))
	}
	return nil, out, nil
}

func (s *Server) handleCreateSave(ctx context.Context, req *sdk.CallToolRequest, input CreateSaveInput) (*sdk.CallToolResult, SaveSummaryOutput, error) {
	gameVersion := input.GameVersion
	if gameVersion == "" {
		gameVersion = s.gameVersion
	}
	f, err := s.saves.Create(ctx, input.Name, gameVersion, s.players.All())
	if err != nil {
		return nil, SaveSummaryOutput{}, err
	}
	return nil, saveSummaryOutput(f.Summary()), nil
}

func (s *Server) handleLoadSave(ctx context.Context, req *sdk.CallToolRequest, input LoadSaveInput) (*sdk.CallToolResult, LoadSaveOutput, error) {
	if input.SaveID == "" {
		return nil, LoadSaveOutput{}, fmt.Errorf("save_id is required")
	}
	players, err := s.saves.Load(ctx, input.SaveID)
	if err != nil {
		return nil, LoadSaveOutput{}, err
	}
	s.players.Replace(players)
	return nil, LoadSaveOutput{SaveID: input.SaveID, PlayerCount: len(players)}, nil
}

func playerOutput(p *player.Player) PlayerOutput {
	out := PlayerOutput{
		ID:           p.ID,
		Name:         p.Name,
		Team:         make([]PokemonOutput, 0, len(p.Team)),
		Location:     append([]string{}, p.Location.Path...),
		Accessible:   make([][]string, 0, len(p.Location.Accessible)),
		Items:        append([]string{}, p.Items...),
		Badges:       append([]string{}, p.Badges...),
		ThoughtCount: len(p.ThoughtHistory),
		BattleCount:  len(p.BattleHistory),
		CreatedAt:    formatTime(p.CreatedAt),
		LastUpdated:  formatTime(p.LastUpdated),
	}
	if p.Location.Description != nil {
		out.Description = *p.Location.Description
	}
	for _, path := range p.Location.Accessible {
		out.Accessible = append(out.Accessible, append([]string{}, path...))
	}
	for _, member := range p.Team {
		out.Team = append(out.Team, pokemonOutput(member))
	}
	return out
}

func pokemonOutput(p *pokemon.Pokemon) PokemonOutput {
	out := PokemonOutput{
		ID:        p.ID,
		Name:      p.Name,
		Level:     p.Level,
		Types:     append([]string{}, p.Types...),
		Nature:    p.Nature,
		CurrentHP: p.CurrentHP,
		MaxHP:     p.MaxHP,
	}
	if p.HeldItem != nil {
		out.HeldItem = *p.HeldItem
	}
	return out
}

func battleOutput(b *player.Battle) BattleOutput {
	out := BattleOutput{
		ID:           b.ID,
		OpponentID:   b.OpponentID,
		OpponentName: b.OpponentName,
		StartTime:    formatTime(b.StartTime),
		TeamSize:     len(b.PlayerTeam),
	}
	if b.Result != nil {
		out.Result = string(*b.Result)
	}
	if b.EndTime != nil {
		out.EndTime = formatTime(*b.EndTime)
	}
	return out
}

func saveSummaryOutput(s save.Summary) SaveSummaryOutput {
	return SaveSummaryOutput{
		ID:          s.ID,
		Name:        s.Name,
		GameVersion: s.GameVersion,
		PlayerCount: s.PlayerCount,
		LastUpdated: formatTime(s.LastUpdated),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
